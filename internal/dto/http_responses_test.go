package dto

import (
	"testing"

	"coachtrips/internal/model"
)

func TestPaymentDetailsValidate(t *testing.T) {
	valid := PaymentDetails{
		NameOnCard:   "A Traveller",
		CardNumber:   "4111111111111111",
		Expiry:       "12/27",
		SecurityCode: "123",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid details rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*PaymentDetails)
		wantErr string
	}{
		{"missing name", func(p *PaymentDetails) { p.NameOnCard = "" }, MsgAllFieldsRequired},
		{"missing number", func(p *PaymentDetails) { p.CardNumber = "" }, MsgAllFieldsRequired},
		{"missing expiry", func(p *PaymentDetails) { p.Expiry = "" }, MsgAllFieldsRequired},
		{"missing code", func(p *PaymentDetails) { p.SecurityCode = "" }, MsgAllFieldsRequired},
		{"card not numeric", func(p *PaymentDetails) { p.CardNumber = "4111-1111-1111-1111" }, MsgCardNumberInvalid},
		{"card too short", func(p *PaymentDetails) { p.CardNumber = "41111111111" }, MsgCardNumberInvalid},
		{"code not numeric", func(p *PaymentDetails) { p.SecurityCode = "12a" }, MsgSecurityCodeInvalid},
		{"code too short", func(p *PaymentDetails) { p.SecurityCode = "12" }, MsgSecurityCodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			if err := p.Validate(); err == nil || err.Error() != tc.wantErr {
				t.Fatalf("error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestCreateEventRequestCoerce(t *testing.T) {
	req := CreateEventRequest{Price: "149.50", SeatsAvailable: "12"}
	price, seatsAvailable, err := req.Coerce()
	if err != nil {
		t.Fatalf("Coerce error: %v", err)
	}
	if price != 149.50 || seatsAvailable != 12 {
		t.Fatalf("Coerce = (%v, %v)", price, seatsAvailable)
	}

	req.Price = "abc"
	if _, _, err := req.Coerce(); err == nil || err.Error() != MsgPriceMustBeNumber {
		t.Fatalf("error = %v, want %q", err, MsgPriceMustBeNumber)
	}

	req.Price = "10"
	req.SeatsAvailable = "2.5"
	if _, _, err := req.Coerce(); err == nil || err.Error() != MsgSeatsAvailableNotWhole {
		t.Fatalf("error = %v, want %q", err, MsgSeatsAvailableNotWhole)
	}

	req.SeatsAvailable = "0"
	if _, _, err := req.Coerce(); err == nil || err.Error() != MsgSeatsAvailableNotWhole {
		t.Fatalf("zero seats should be rejected, got %v", err)
	}
}

func TestUpdateEventRequestFields(t *testing.T) {
	title := "New Title"
	price := "99.90"
	req := UpdateEventRequest{Title: &title, Price: &price}

	fields, err := req.Fields()
	if err != nil {
		t.Fatalf("Fields error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fields = %v, want exactly the provided two", fields)
	}
	if fields["title"] != "New Title" {
		t.Fatalf("title = %v", fields["title"])
	}
	if fields["price"] != 99.90 {
		t.Fatalf("price = %v", fields["price"])
	}

	bad := "not-a-number"
	req.Price = &bad
	if _, err := req.Fields(); err == nil || err.Error() != MsgPriceMustBeNumber {
		t.Fatalf("error = %v, want %q", err, MsgPriceMustBeNumber)
	}
}

func TestNewEventResponseRemainingSeats(t *testing.T) {
	ev := &model.TravelEvent{SeatsAvailable: 10, SeatsBooked: 7}
	resp := NewEventResponse(ev)
	if resp.SeatsRemaining != 3 {
		t.Fatalf("SeatsRemaining = %d, want 3", resp.SeatsRemaining)
	}
	if resp.SeatsBooked != 7 {
		t.Fatalf("SeatsBooked = %d, want 7", resp.SeatsBooked)
	}
}
