package service

import (
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"coachtrips/internal/attendance"
	"coachtrips/internal/booking"
	"coachtrips/internal/dto"
	"coachtrips/internal/live"
	"coachtrips/internal/mailer"
	"coachtrips/internal/model"
	"coachtrips/internal/repo"
	"coachtrips/pkg/validator"
)

type Service interface {
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	CancelEvent(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	Join(ctx *ginext.Context)
	PayBooking(ctx *ginext.Context)
	CancelBooking(ctx *ginext.Context)
	EventBookings(ctx *ginext.Context)
	UserBookings(ctx *ginext.Context)
	GetAttendance(ctx *ginext.Context)
	SaveAttendance(ctx *ginext.Context)
	LiveSeats(ctx *ginext.Context)
}

type service struct {
	repo    repo.Repository
	log     *zerolog.Logger
	ctrl    *booking.Controller
	hub     *live.Hub
	smtpCfg mailer.Config
}

func NewService(repository repo.Repository, logger *zerolog.Logger, ctrl *booking.Controller, hub *live.Hub, smtpCfg mailer.Config) Service {
	return &service{
		repo:    repository,
		log:     logger,
		ctrl:    ctrl,
		hub:     hub,
		smtpCfg: smtpCfg,
	}
}

// validationMessages are client-input failures; they map to 400, everything
// else unknown maps to 500.
var validationMessages = map[string]bool{
	dto.MsgSeatsRequired:          true,
	dto.MsgSeatsNotWhole:          true,
	dto.MsgSeatsAtLeastOne:        true,
	dto.MsgAllFieldsRequired:      true,
	dto.MsgCardNumberInvalid:      true,
	dto.MsgSecurityCodeInvalid:    true,
	dto.MsgPriceMustBeNumber:      true,
	dto.MsgSeatsAvailableNotWhole: true,
}

// identity reads the caller identity the fronting auth layer injected.
// Mutating operations require it; a blank identity is a contract violation.
func identity(ctx *ginext.Context) (uid, name, email string, ok bool) {
	uid = ctx.GetString("identity_uid")
	name = ctx.GetString("identity_name")
	email = ctx.GetString("identity_email")
	return uid, name, email, uid != "" && name != ""
}

// fallbackMessage keeps the backend's message where it has one, otherwise
// the operation-specific fallback string.
func fallbackMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	uid, name, _, ok := identity(ctx)
	if !ok {
		dto.IdentityMissingError(ctx)
		return
	}

	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, dto.MsgAllFieldsRequired)
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, dto.MsgAllFieldsRequired)
		return
	}

	price, seatsAvailable, err := req.Coerce()
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	event := req.ToModel(price, seatsAvailable, name, uid)
	id, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create travel event in DB")
		dto.OperationFailedError(ctx, dto.MsgCreateEventFailed)
		return
	}

	s.log.Info().Str("event_id", id).Msg("travel event created successfully")
	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	if _, _, _, ok := identity(ctx); !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, verr.Error())
		return
	}

	fields, err := req.Fields()
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		return
	}

	if err := s.repo.UpdateEvent(ctx, eventID, fields); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update travel event")
		dto.InternalServerError(ctx)
		return
	}

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	s.ctrl.AnnounceEventUpdated(ctx.Request.Context(), eventID)
	dto.SuccessResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) CancelEvent(ctx *ginext.Context) {
	if _, _, _, ok := identity(ctx); !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")

	var req dto.CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	err := s.ctrl.CancelEvent(booking.WithConfirmation(ctx.Request.Context(), req.Confirm), eventID)
	switch {
	case err == nil:
		s.log.Info().Str("event_id", eventID).Msg("travel event cancelled")
		dto.SuccessResponse(ctx, nil)
	case errors.Is(err, booking.ErrConfirmationDeclined):
		// Declined: no action taken, prior state unchanged.
		dto.SuccessResponse(ctx, nil)
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	default:
		s.log.Error().Err(err).Msg("failed to cancel travel event")
		dto.OperationFailedError(ctx, fallbackMessage(err, dto.MsgEventCancelFailed))
	}
}

func (s *service) GetEvent(ctx *ginext.Context) {
	event, err := s.repo.GetEventByID(ctx, ctx.Param("id"))
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	events, err := s.repo.GetAllEvents(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list travel events")
		dto.InternalServerError(ctx)
		return
	}
	events = filterEvents(events, ctx.Query("q"))

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, dto.NewEventResponse(&events[i]))
	}
	dto.SuccessResponse(ctx, resp)
}

// filterEvents keeps events whose title, destination, or pickup location
// contains the query, case-insensitive. A blank query keeps everything.
func filterEvents(events []model.TravelEvent, query string) []model.TravelEvent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return events
	}
	filtered := make([]model.TravelEvent, 0, len(events))
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), q) ||
			strings.Contains(strings.ToLower(ev.Destination), q) ||
			strings.Contains(strings.ToLower(ev.PickupLocation), q) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func (s *service) Join(ctx *ginext.Context) {
	uid, name, email, ok := identity(ctx)
	if !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")

	var req dto.JoinEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	outcome, err := s.ctrl.Join(ctx.Request.Context(), booking.JoinInput{
		EventID:     eventID,
		SeatsRaw:    req.Seats,
		BookerName:  name,
		BookerEmail: email,
		BookerUID:   uid,
		PayNow:      req.PayNow,
		Payment:     req.Payment,
	})
	if err != nil {
		s.respondJoinError(ctx, err)
		return
	}

	if outcome.PaymentRequired {
		dto.SuccessResponse(ctx, dto.JoinResponse{Message: outcome.Message})
		return
	}

	s.log.Info().Str("booking_id", outcome.BookingID).Str("event_id", eventID).Msg("booking created successfully")
	s.sendBookingMail(ctx, eventID, email, outcome.Message == dto.MsgPaymentSuccessful)

	dto.SuccessCreatedResponse(ctx, dto.JoinResponse{
		BookingID: outcome.BookingID,
		Message:   outcome.Message,
	})
}

func (s *service) respondJoinError(ctx *ginext.Context, err error) {
	var noSeats *repo.NoSeatsError
	switch {
	case errors.As(err, &noSeats):
		dto.BadResponseError(ctx, dto.NoSeatsRemaining, noSeats.Error())
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case validationMessages[err.Error()]:
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
	default:
		s.log.Error().Err(err).Msg("failed to create booking")
		dto.InternalServerError(ctx)
	}
}

func (s *service) sendBookingMail(ctx *ginext.Context, eventID, email string, paid bool) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to get event for booking e-mail")
		return
	}
	status := "pending_payment"
	if paid {
		status = "paid"
	}
	if err := mailer.SendBookingEmail(&zlog.Logger, s.smtpCfg, event.Title, status, email); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to send booking e-mail")
	}
}

func (s *service) PayBooking(ctx *ginext.Context) {
	_, _, email, ok := identity(ctx)
	if !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")
	bookingID := ctx.Param("bookingId")

	var req dto.PayBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if req.Cancelled {
		dto.SuccessResponse(ctx, dto.JoinResponse{BookingID: bookingID, Message: dto.MsgPaymentCancelled})
		return
	}

	message, err := s.ctrl.PayNow(ctx.Request.Context(), eventID, bookingID, req.Payment)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrBookingNotFound):
			dto.BookingNotFoundError(ctx)
		case validationMessages[err.Error()]:
			dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
		default:
			s.log.Error().Err(err).Msg("failed to update booking payment status")
			dto.OperationFailedError(ctx, fallbackMessage(err, dto.MsgPaymentFailed))
		}
		return
	}

	s.sendBookingMail(ctx, eventID, email, true)
	dto.SuccessResponse(ctx, dto.JoinResponse{BookingID: bookingID, Message: message})
}

func (s *service) CancelBooking(ctx *ginext.Context) {
	if _, _, _, ok := identity(ctx); !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")
	bookingID := ctx.Param("bookingId")

	var req dto.CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	message, err := s.ctrl.CancelBooking(booking.WithConfirmation(ctx.Request.Context(), req.Confirm), eventID, bookingID)
	switch {
	case err == nil:
		s.log.Info().Str("booking_id", bookingID).Msg("booking cancelled")
		dto.SuccessResponse(ctx, dto.JoinResponse{BookingID: bookingID, Message: message})
	case errors.Is(err, booking.ErrConfirmationDeclined):
		dto.SuccessResponse(ctx, nil)
	case errors.Is(err, repo.ErrBookingNotFound):
		dto.BookingNotFoundError(ctx)
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	default:
		s.log.Error().Err(err).Msg("failed to cancel booking")
		dto.OperationFailedError(ctx, fallbackMessage(err, dto.MsgBookingCancelFailed))
	}
}

func (s *service) EventBookings(ctx *ginext.Context) {
	eventID := ctx.Param("id")

	bookings, err := s.repo.BookingsByEvent(ctx, eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load bookings")
		dto.OperationFailedError(ctx, dto.MsgFailedLoadBookings)
		return
	}
	cancellations, err := s.repo.CancellationsByEvent(ctx, eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load cancellations")
		dto.OperationFailedError(ctx, dto.MsgFailedLoadBookings)
		return
	}

	dto.SuccessResponse(ctx, dto.EventBookingsResponse{
		Bookings:      bookings,
		Cancellations: cancellations,
	})
}

func (s *service) UserBookings(ctx *ginext.Context) {
	uid, _, _, ok := identity(ctx)
	if !ok {
		dto.IdentityMissingError(ctx)
		return
	}

	results, err := s.repo.BookingsByUser(ctx, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user bookings")
		dto.OperationFailedError(ctx, dto.MsgFailedLoadBookings)
		return
	}

	resp := make([]dto.UserBookingResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, dto.UserBookingResponse{
			BookingID: r.BookingID,
			EventID:   r.EventID,
			Booking:   r.Booking,
			Event:     dto.NewEventResponse(&r.Event),
			Amount:    r.Amount(),
		})
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetAttendance(ctx *ginext.Context) {
	eventID := ctx.Param("id")

	sheet, err := attendance.Load(ctx, s.repo, eventID, s.log)
	if err != nil {
		dto.OperationFailedError(ctx, err.Error())
		return
	}
	dto.SuccessResponse(ctx, sheet.Rows())
}

func (s *service) SaveAttendance(ctx *ginext.Context) {
	if _, _, _, ok := identity(ctx); !ok {
		dto.IdentityMissingError(ctx)
		return
	}
	eventID := ctx.Param("id")

	var req dto.SaveAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	sheet, err := attendance.Load(ctx.Request.Context(), s.repo, eventID, s.log)
	if err != nil {
		dto.OperationFailedError(ctx, err.Error())
		return
	}

	index := make(map[string]int, len(sheet.Rows()))
	for i, row := range sheet.Rows() {
		index[row.ID] = i
	}
	for _, mark := range req.Marks {
		i, found := index[mark.BookingID]
		if !found {
			continue
		}
		if mark.Attended != sheet.Rows()[i].Attended {
			sheet.Toggle(i)
		}
		if mark.SeatsAttended != nil {
			sheet.SetSeatsAttended(i, *mark.SeatsAttended)
		}
	}

	if err := sheet.Save(ctx.Request.Context()); err != nil {
		dto.OperationFailedError(ctx, err.Error())
		return
	}
	dto.SuccessResponse(ctx, nil)
}

// LiveSeats streams one event's live updates as server-sent events: seat
// totals and event edits, tagged by kind. The first message carries the
// current total; later ones arrive through the hub as other sessions' writes
// commit.
func (s *service) LiveSeats(ctx *ginext.Context) {
	eventID := ctx.Param("id")
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	updates := make(chan live.Update, 8)
	unsubscribe := s.hub.Subscribe(eventID, func(u live.Update) {
		select {
		case updates <- u:
		default: // slow consumer, drop; the next update supersedes it
		}
	})
	defer unsubscribe()

	booked, err := s.repo.SeatsBooked(ctx, eventID)
	if err == nil {
		updates <- live.Update{Kind: live.KindSeats, EventID: eventID, SeatsBooked: booked}
	}

	clientGone := ctx.Request.Context().Done()
	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case u := <-updates:
			ctx.SSEvent(u.Kind, u)
			return true
		}
	})
}
