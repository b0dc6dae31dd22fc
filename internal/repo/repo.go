package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"coachtrips/internal/model"
	"coachtrips/internal/seats"
)

var (
	ErrEventNotFound   = errors.New("Travel event not found")
	ErrBookingNotFound = errors.New("Booking not found")
)

// NoSeatsError reports a failed capacity check. Remaining is the exact
// unclamped count seatsAvailable - seatsBooked at check time.
type NoSeatsError struct {
	Remaining int
}

func (e *NoSeatsError) Error() string {
	return fmt.Sprintf("Only %d seat(s) remaining.", e.Remaining)
}

type Repository interface {
	CreateEvent(ctx context.Context, e *model.TravelEvent) (string, error)
	UpdateEvent(ctx context.Context, id string, fields map[string]any) error
	CancelEvent(ctx context.Context, id string) error
	GetEventByID(ctx context.Context, id string) (*model.TravelEvent, error)
	GetAllEvents(ctx context.Context) ([]model.TravelEvent, error)
	EventCapacity(ctx context.Context, eventID string) (int, error)
	SeatsBooked(ctx context.Context, eventID string) (int, error)
	CreateBookingTx(ctx context.Context, eventID string, b *model.Booking) (string, error)
	GetBooking(ctx context.Context, eventID, bookingID string) (*model.Booking, error)
	UpdateBookingPaymentStatus(ctx context.Context, eventID, bookingID string, paid bool) error
	CancelBookingTx(ctx context.Context, eventID, bookingID string) error
	BookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error)
	CancellationsByEvent(ctx context.Context, eventID string) ([]model.Booking, error)
	BookingsByUser(ctx context.Context, bookerUID string) ([]model.UserBookingWithEvent, error)
	UpdateBookingAttendance(ctx context.Context, eventID, bookingID string, attended bool, seatsAttended int) error
	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.TravelEvent) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO travel_events
			(id, title, destination, pickup_location, pickup_date, pickup_time,
			 price, seats_available, require_payment, organizer_name, organizer_uid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'active')
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		id, e.Title, e.Destination, e.PickupLocation, e.PickupDate, e.PickupTime,
		e.Price, e.SeatsAvailable, e.RequirePayment, e.OrganizerName, e.OrganizerUID,
	)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return "", fmt.Errorf("failed to insert travel event: %w", err)
	}
	e.ID = id
	e.Status = model.StatusActive
	return id, nil
}

// eventColumns lists the fields UpdateEvent may merge. Anything else in the
// partial update is a programming error.
var eventColumns = map[string]bool{
	"title":           true,
	"destination":     true,
	"pickup_location": true,
	"pickup_date":     true,
	"pickup_time":     true,
	"price":           true,
	"seats_available": true,
	"require_payment": true,
}

func (r *repository) UpdateEvent(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		if !eventColumns[col] {
			return fmt.Errorf("unknown travel event column %q", col)
		}
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE travel_events SET %s WHERE id = $%d RETURNING id",
		strings.Join(set, ", "), len(args),
	)

	var updated string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to update travel event: %w", err)
	}
	return nil
}

func (r *repository) CancelEvent(ctx context.Context, id string) error {
	query := `
		UPDATE travel_events
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING id
	`
	var cancelled string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&cancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to cancel travel event: %w", err)
	}
	return nil
}

func (r *repository) GetEventByID(ctx context.Context, id string) (*model.TravelEvent, error) {
	query := `
		SELECT id, title, destination, pickup_location, pickup_date, pickup_time,
		       price, seats_available, require_payment, organizer_name, organizer_uid,
		       status, created_at, updated_at
		FROM travel_events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.TravelEvent
	if err := row.Scan(
		&e.ID, &e.Title, &e.Destination, &e.PickupLocation, &e.PickupDate, &e.PickupTime,
		&e.Price, &e.SeatsAvailable, &e.RequirePayment, &e.OrganizerName, &e.OrganizerUID,
		&e.Status, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, ErrEventNotFound
	}

	booked, err := r.SeatsBooked(ctx, id)
	if err != nil {
		return nil, err
	}
	e.SeatsBooked = booked
	return &e, nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.TravelEvent, error) {
	query := `
		SELECT id, title, destination, pickup_location, pickup_date, pickup_time,
		       price, seats_available, require_payment, organizer_name, organizer_uid,
		       status, created_at, updated_at
		FROM travel_events
		WHERE status = 'active'
		ORDER BY to_date(pickup_date, 'DD/MM/YYYY') ASC, pickup_time ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get travel events: %w", err)
	}
	defer rows.Close()

	var events []model.TravelEvent
	for rows.Next() {
		var e model.TravelEvent
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Destination, &e.PickupLocation, &e.PickupDate, &e.PickupTime,
			&e.Price, &e.SeatsAvailable, &e.RequirePayment, &e.OrganizerName, &e.OrganizerUID,
			&e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan travel event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate travel events: %w", err)
	}

	for i := range events {
		booked, err := r.SeatsBooked(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].SeatsBooked = booked
	}
	return events, nil
}

func (r *repository) EventCapacity(ctx context.Context, eventID string) (int, error) {
	var capacity int
	err := r.db.QueryRowContext(ctx,
		`SELECT seats_available FROM travel_events WHERE id = $1`, eventID,
	).Scan(&capacity)
	if err != nil {
		return 0, ErrEventNotFound
	}
	return capacity, nil
}

func (r *repository) SeatsBooked(ctx context.Context, eventID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(seats_booked), 0)
		FROM bookings
		WHERE event_id = $1 AND status != 'cancelled'
	`, eventID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum booked seats: %w", err)
	}
	return total, nil
}

// CreateBookingTx re-checks capacity against a fresh sum and appends the
// booking inside one transaction. The event row is locked for the duration
// so concurrent bookers serialise on the same ledger snapshot.
func (r *repository) CreateBookingTx(ctx context.Context, eventID string, b *model.Booking) (string, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var capacity int
	err = tx.QueryRowContext(ctx, `
		SELECT seats_available
		FROM travel_events
		WHERE id = $1 AND status = 'active'
		FOR UPDATE
	`, eventID).Scan(&capacity)
	if err != nil {
		_ = tx.Rollback()
		return "", ErrEventNotFound
	}

	var booked int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(seats_booked), 0)
		FROM bookings
		WHERE event_id = $1 AND status != 'cancelled'
	`, eventID).Scan(&booked)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to sum booked seats: %w", err)
	}

	if !seats.Fits(capacity, booked, b.SeatsBooked) {
		_ = tx.Rollback()
		return "", &NoSeatsError{Remaining: seats.Remaining(capacity, booked)}
	}

	id := uuid.New().String()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, event_id, seats_booked, payed, booker_name, booker_email, booker_uid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING created_at
	`, id, eventID, b.SeatsBooked, b.Payed, b.BookerName, b.BookerEmail, b.BookerUID).Scan(&b.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.ID = id
	b.EventID = eventID
	b.Status = model.StatusActive
	return id, nil
}

func (r *repository) GetBooking(ctx context.Context, eventID, bookingID string) (*model.Booking, error) {
	query := `
		SELECT id, event_id, seats_booked, payed, booker_name, booker_email, booker_uid,
		       status, attended, seats_attended, created_at
		FROM bookings
		WHERE id = $1 AND event_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, bookingID, eventID)

	var b model.Booking
	if err := row.Scan(
		&b.ID, &b.EventID, &b.SeatsBooked, &b.Payed, &b.BookerName, &b.BookerEmail, &b.BookerUID,
		&b.Status, &b.Attended, &b.SeatsAttended, &b.CreatedAt,
	); err != nil {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r *repository) UpdateBookingPaymentStatus(ctx context.Context, eventID, bookingID string, paid bool) error {
	query := `
		UPDATE bookings
		SET payed = $1
		WHERE id = $2 AND event_id = $3
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, query, paid, bookingID, eventID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to update booking payment status: %w", err)
	}
	return nil
}

func (r *repository) CancelBookingTx(ctx context.Context, eventID, bookingID string) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var id string
	err = tx.QueryRowContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND event_id = $2 AND status = 'active'
		RETURNING id
	`, bookingID, eventID).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation transaction: %w", err)
	}
	return nil
}

func (r *repository) BookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	return r.bookingsByEventStatus(ctx, eventID, model.StatusActive)
}

func (r *repository) CancellationsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	return r.bookingsByEventStatus(ctx, eventID, model.StatusCancelled)
}

func (r *repository) bookingsByEventStatus(ctx context.Context, eventID, status string) ([]model.Booking, error) {
	query := `
		SELECT id, event_id, seats_booked, payed, booker_name, booker_email, booker_uid,
		       status, attended, seats_attended, created_at
		FROM bookings
		WHERE event_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.EventID, &b.SeatsBooked, &b.Payed, &b.BookerName, &b.BookerEmail, &b.BookerUID,
			&b.Status, &b.Attended, &b.SeatsAttended, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// BookingsByUser returns the user's active bookings joined to their parent
// events. The inner join silently drops bookings whose event no longer
// resolves.
func (r *repository) BookingsByUser(ctx context.Context, bookerUID string) ([]model.UserBookingWithEvent, error) {
	query := `
		SELECT b.id, b.event_id, b.seats_booked, b.payed, b.booker_name, b.booker_email, b.booker_uid,
		       b.status, b.attended, b.seats_attended, b.created_at,
		       e.id, e.title, e.destination, e.pickup_location, e.pickup_date, e.pickup_time,
		       e.price, e.seats_available, e.require_payment, e.organizer_name, e.organizer_uid,
		       e.status, e.created_at, e.updated_at
		FROM bookings b
		JOIN travel_events e ON e.id = b.event_id
		WHERE b.booker_uid = $1 AND b.status != 'cancelled'
		ORDER BY b.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, bookerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var results []model.UserBookingWithEvent
	for rows.Next() {
		var b model.Booking
		var e model.TravelEvent
		if err := rows.Scan(
			&b.ID, &b.EventID, &b.SeatsBooked, &b.Payed, &b.BookerName, &b.BookerEmail, &b.BookerUID,
			&b.Status, &b.Attended, &b.SeatsAttended, &b.CreatedAt,
			&e.ID, &e.Title, &e.Destination, &e.PickupLocation, &e.PickupDate, &e.PickupTime,
			&e.Price, &e.SeatsAvailable, &e.RequirePayment, &e.OrganizerName, &e.OrganizerUID,
			&e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user booking: %w", err)
		}
		results = append(results, model.UserBookingWithEvent{
			BookingID: b.ID,
			EventID:   e.ID,
			Booking:   b,
			Event:     e,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user bookings: %w", err)
	}

	for i := range results {
		booked, err := r.SeatsBooked(ctx, results[i].EventID)
		if err != nil {
			return nil, err
		}
		results[i].Event.SeatsBooked = booked
	}
	return results, nil
}

func (r *repository) UpdateBookingAttendance(ctx context.Context, eventID, bookingID string, attended bool, seatsAttended int) error {
	query := `
		UPDATE bookings
		SET attended = $1, seats_attended = $2
		WHERE id = $3 AND event_id = $4
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, query, attended, seatsAttended, bookingID, eventID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to update booking attendance: %w", err)
	}
	return nil
}
