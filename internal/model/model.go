package model

import "time"

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

type TravelEvent struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Destination    string    `db:"destination" json:"destination"`
	PickupLocation string    `db:"pickup_location" json:"pickup_location"`
	PickupDate     string    `db:"pickup_date" json:"pickup_date"` // DD/MM/YYYY, kept as text
	PickupTime     string    `db:"pickup_time" json:"pickup_time"` // HH:MM
	Price          float64   `db:"price" json:"price"`
	SeatsAvailable int       `db:"seats_available" json:"seats_available"`
	SeatsBooked    int       `db:"-" json:"seats_booked"` // derived from the bookings ledger, never stored
	RequirePayment bool      `db:"require_payment" json:"require_payment"`
	OrganizerName  string    `db:"organizer_name" json:"organizer_name"`
	OrganizerUID   string    `db:"organizer_uid" json:"organizer_uid"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Booking struct {
	ID            string    `db:"id" json:"id"`
	EventID       string    `db:"event_id" json:"event_id"`
	SeatsBooked   int       `db:"seats_booked" json:"seats_booked"`
	Payed         bool      `db:"payed" json:"payed"`
	BookerName    string    `db:"booker_name" json:"booker_name"`
	BookerEmail   string    `db:"booker_email" json:"booker_email,omitempty"`
	BookerUID     string    `db:"booker_uid" json:"booker_uid"`
	Status        string    `db:"status" json:"status"`
	Attended      bool      `db:"attended" json:"attended"`
	SeatsAttended *int      `db:"seats_attended" json:"seats_attended,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// UserBookingWithEvent pairs a booking with its parent event's current data.
// Event.SeatsBooked carries a freshly derived total.
type UserBookingWithEvent struct {
	BookingID string      `json:"booking_id"`
	EventID   string      `json:"event_id"`
	Booking   Booking     `json:"booking"`
	Event     TravelEvent `json:"event"`
}

// Amount is the payment due for the booking: event price times booked seats.
func (u UserBookingWithEvent) Amount() float64 {
	return u.Event.Price * float64(u.Booking.SeatsBooked)
}
