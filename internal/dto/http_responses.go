package dto

import (
	"errors"
	"strconv"
	"time"

	"github.com/wb-go/wbf/ginext"

	"coachtrips/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound      = "EVENT_NOT_FOUND"
	BookingNotFound    = "BOOKING_NOT_FOUND"
	NoSeatsRemaining   = "NO_SEATS_REMAINING"
	IdentityMissing    = "IDENTITY_MISSING"
	ConfirmationDenied = "CONFIRMATION_DENIED"
)

// Outcome and validation strings are a UI contract: the client forwards them
// to its snackbar verbatim.
const (
	MsgSeatsRequired   = "Number of seats is required."
	MsgSeatsNotWhole   = "Number of seats must be a whole number."
	MsgSeatsAtLeastOne = "You must book at least 1 seat."

	MsgBookingSavedPending    = "Booking saved, pending payment."
	MsgInstantPaymentRequired = "Instant payment is required."
	MsgPaymentSuccessful      = "Payment successful."
	MsgPaymentCancelled       = "Payment cancelled."
	MsgPaymentFailed          = "Payment failed."
	MsgBookingCancelFailed    = "Booking cancellation failed."
	MsgEventCancelFailed      = "Event cancellation failed."
	MsgCreateEventFailed      = "Create event failed."
	MsgFailedLoadBookings     = "Failed to load bookings."
	MsgFailedLoadAttendance   = "Failed to load attendance data."
	MsgFailedSaveAttendance   = "Failed to save attendance."
	MsgAllFieldsRequired      = "All fields are required."
	MsgPriceMustBeNumber      = "Price must be a number."
	MsgSeatsAvailableNotWhole = "Seats available must be a whole number."
	MsgCardNumberInvalid      = "Card number is invalid."
	MsgSecurityCodeInvalid    = "Security code is invalid."
)

// CreateEventRequest carries event fields as the form submits them: price and
// seats arrive as raw strings and are coerced at this boundary.
type CreateEventRequest struct {
	Title          string `json:"title" validate:"required"`
	Destination    string `json:"destination" validate:"required"`
	PickupLocation string `json:"pickup_location" validate:"required"`
	PickupDate     string `json:"pickup_date" validate:"required,ddmmyyyy"`
	PickupTime     string `json:"pickup_time" validate:"required,hhmm"`
	Price          string `json:"price" validate:"required"`
	SeatsAvailable string `json:"seats_available" validate:"required"`
	RequirePayment bool   `json:"require_payment"`
}

// Coerce parses the string-encoded numeric fields, reproducing the form
// validation wording on failure.
func (r CreateEventRequest) Coerce() (price float64, seatsAvailable int, err error) {
	price, err = strconv.ParseFloat(r.Price, 64)
	if err != nil || price < 0 {
		return 0, 0, errors.New(MsgPriceMustBeNumber)
	}
	seatsAvailable, err = strconv.Atoi(r.SeatsAvailable)
	if err != nil || seatsAvailable <= 0 {
		return 0, 0, errors.New(MsgSeatsAvailableNotWhole)
	}
	return price, seatsAvailable, nil
}

func (r CreateEventRequest) ToModel(price float64, seatsAvailable int, organizerName, organizerUID string) *model.TravelEvent {
	return &model.TravelEvent{
		Title:          r.Title,
		Destination:    r.Destination,
		PickupLocation: r.PickupLocation,
		PickupDate:     r.PickupDate,
		PickupTime:     r.PickupTime,
		Price:          price,
		SeatsAvailable: seatsAvailable,
		RequirePayment: r.RequirePayment,
		OrganizerName:  organizerName,
		OrganizerUID:   organizerUID,
	}
}

// UpdateEventRequest merges only the fields present in the payload.
type UpdateEventRequest struct {
	Title          *string `json:"title,omitempty"`
	Destination    *string `json:"destination,omitempty"`
	PickupLocation *string `json:"pickup_location,omitempty"`
	PickupDate     *string `json:"pickup_date,omitempty" validate:"omitempty,ddmmyyyy"`
	PickupTime     *string `json:"pickup_time,omitempty" validate:"omitempty,hhmm"`
	Price          *string `json:"price,omitempty"`
	SeatsAvailable *string `json:"seats_available,omitempty"`
	RequirePayment *bool   `json:"require_payment,omitempty"`
}

// Fields coerces the present fields into the column map the store merges,
// with the same wording as the create form on bad numerics.
func (r UpdateEventRequest) Fields() (map[string]any, error) {
	fields := make(map[string]any)
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.Destination != nil {
		fields["destination"] = *r.Destination
	}
	if r.PickupLocation != nil {
		fields["pickup_location"] = *r.PickupLocation
	}
	if r.PickupDate != nil {
		fields["pickup_date"] = *r.PickupDate
	}
	if r.PickupTime != nil {
		fields["pickup_time"] = *r.PickupTime
	}
	if r.Price != nil {
		price, err := strconv.ParseFloat(*r.Price, 64)
		if err != nil || price < 0 {
			return nil, errors.New(MsgPriceMustBeNumber)
		}
		fields["price"] = price
	}
	if r.SeatsAvailable != nil {
		seatsAvailable, err := strconv.Atoi(*r.SeatsAvailable)
		if err != nil || seatsAvailable <= 0 {
			return nil, errors.New(MsgSeatsAvailableNotWhole)
		}
		fields["seats_available"] = seatsAvailable
	}
	if r.RequirePayment != nil {
		fields["require_payment"] = *r.RequirePayment
	}
	return fields, nil
}

// PaymentDetails is the client-side payment stub: fields are validated here
// and nowhere else, no settlement happens.
type PaymentDetails struct {
	NameOnCard   string `json:"name_on_card"`
	CardNumber   string `json:"card_number"`
	Expiry       string `json:"expiry"`
	SecurityCode string `json:"security_code"`
}

func (p PaymentDetails) Validate() error {
	if p.NameOnCard == "" || p.CardNumber == "" || p.Expiry == "" || p.SecurityCode == "" {
		return errors.New(MsgAllFieldsRequired)
	}
	if _, err := strconv.ParseUint(p.CardNumber, 10, 64); err != nil || len(p.CardNumber) < 12 {
		return errors.New(MsgCardNumberInvalid)
	}
	if _, err := strconv.Atoi(p.SecurityCode); err != nil || len(p.SecurityCode) < 3 {
		return errors.New(MsgSecurityCodeInvalid)
	}
	return nil
}

// JoinEventRequest carries the raw seat input plus the optional immediate
// payment. PayNow reports whether the user accepted the optional payment
// offer on a no-payment-required event.
type JoinEventRequest struct {
	Seats   string          `json:"seats"`
	PayNow  bool            `json:"pay_now"`
	Payment *PaymentDetails `json:"payment,omitempty"`
}

// PayBookingRequest settles an unpaid booking. Cancelled reports that the
// user dismissed the payment form without paying; nothing is written.
type PayBookingRequest struct {
	Payment   PaymentDetails `json:"payment"`
	Cancelled bool           `json:"cancelled,omitempty"`
}

// CancelRequest reports the outcome of the client-side yes/no prompt.
type CancelRequest struct {
	Confirm bool `json:"confirm"`
}

type AttendanceMark struct {
	BookingID     string `json:"booking_id"`
	Attended      bool   `json:"attended"`
	SeatsAttended *int   `json:"seats_attended,omitempty"`
}

type SaveAttendanceRequest struct {
	Marks []AttendanceMark `json:"marks"`
}

type EventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Destination    string    `json:"destination"`
	PickupLocation string    `json:"pickup_location"`
	PickupDate     string    `json:"pickup_date"`
	PickupTime     string    `json:"pickup_time"`
	Price          float64   `json:"price"`
	SeatsAvailable int       `json:"seats_available"`
	SeatsBooked    int       `json:"seats_booked"`
	SeatsRemaining int       `json:"seats_remaining"`
	RequirePayment bool      `json:"require_payment"`
	OrganizerName  string    `json:"organizer_name"`
	OrganizerUID   string    `json:"organizer_uid"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewEventResponse(e *model.TravelEvent) EventResponse {
	return EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		Destination:    e.Destination,
		PickupLocation: e.PickupLocation,
		PickupDate:     e.PickupDate,
		PickupTime:     e.PickupTime,
		Price:          e.Price,
		SeatsAvailable: e.SeatsAvailable,
		SeatsBooked:    e.SeatsBooked,
		SeatsRemaining: e.SeatsAvailable - e.SeatsBooked,
		RequirePayment: e.RequirePayment,
		OrganizerName:  e.OrganizerName,
		OrganizerUID:   e.OrganizerUID,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type JoinResponse struct {
	BookingID string `json:"booking_id,omitempty"`
	Message   string `json:"message"`
}

type EventBookingsResponse struct {
	Bookings      []model.Booking `json:"bookings"`
	Cancellations []model.Booking `json:"cancellations"`
}

type UserBookingResponse struct {
	BookingID string        `json:"booking_id"`
	EventID   string        `json:"event_id"`
	Booking   model.Booking `json:"booking"`
	Event     EventResponse `json:"event"`
	Amount    float64       `json:"amount"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func OperationFailedError(c *ginext.Context, desc string) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: desc,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: EventNotFound,
			Desc: "Travel event not found",
		},
	})
}

func BookingNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: BookingNotFound,
			Desc: "Booking not found",
		},
	})
}

func IdentityMissingError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: IdentityMissing,
			Desc: "Caller identity is required",
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
