package ride

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestRequestSeatDemand(t *testing.T) {
	full := &Request{SeatAmount: "full"}
	if !full.IsFull() {
		t.Fatal("expected full request")
	}
	if _, err := full.Seats(); !errors.Is(err, ErrFullDemand) {
		t.Fatalf("Seats() on full demand: got %v, want ErrFullDemand", err)
	}
	if got := full.SeatsNeeded(); got != 1 {
		t.Fatalf("SeatsNeeded() = %d, want 1", got)
	}

	two := &Request{SeatAmount: "2"}
	if two.IsFull() {
		t.Fatal("did not expect full request")
	}
	n, err := two.Seats()
	if err != nil || n != 2 {
		t.Fatalf("Seats() = %d, %v; want 2, nil", n, err)
	}

	broken := &Request{SeatAmount: "many"}
	var pe *ParseError
	if _, err := broken.Seats(); !errors.As(err, &pe) {
		t.Fatalf("Seats() on malformed demand: got %v, want ParseError", err)
	}
	if got := broken.SeatsNeeded(); got != 1 {
		t.Fatalf("SeatsNeeded() = %d, want 1", got)
	}
}

func TestParseSeatAmount(t *testing.T) {
	cases := map[string]struct {
		want string
		ok   bool
	}{
		"1":     {"1", true},
		" 03 ":  {"3", true},
		"FULL":  {"full", true},
		"0":     {"", false},
		"-2":    {"", false},
		"two":   {"", false},
		"":      {"", false},
		"2.5":   {"", false},
		" full": {"full", true},
	}
	for in, tc := range cases {
		got, err := ParseSeatAmount(in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseSeatAmount(%q) = %q, %v; want %q", in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseSeatAmount(%q) = %q, want error", in, got)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	var pe *ParseError
	if _, err := ParseDate("2025-13-40"); !errors.As(err, &pe) {
		t.Fatalf("got %v, want ParseError", err)
	}
	if pe.Field != "date" {
		t.Fatalf("field = %q, want date", pe.Field)
	}
}

func TestWindow(t *testing.T) {
	d := mustDate(t, "2025-06-10")

	from, to := Window(d, 4*time.Hour)
	if !from.Equal(d) || !to.Equal(d) {
		t.Fatalf("4h window = [%s, %s], want same day", from.Format(DateLayout), to.Format(DateLayout))
	}

	from, to = Window(d.Add(15*time.Hour), 48*time.Hour)
	if !from.Equal(d) {
		t.Fatalf("from = %s, want %s", from.Format(DateLayout), d.Format(DateLayout))
	}
	if want := mustDate(t, "2025-06-12"); !to.Equal(want) {
		t.Fatalf("to = %s, want %s", to.Format(DateLayout), want.Format(DateLayout))
	}
}

func TestNewOfferNormalizesAndValidates(t *testing.T) {
	draft := OfferDraft{
		TravelDate:    mustDate(t, "2025-06-10"),
		TravelTime:    "08:30",
		StartLocation: " бишкек ",
		EndLocation:   "ОШ",
		CarModel:      "Camry",
		TotalSeats:    4,
		FreeSeats:     3,
	}
	offer, err := NewOffer("0D6F6C7E-2B1A-4E43-9A57-3C1F8E0B9A11", draft)
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}
	if offer.StartLocation != "Bishkek" || offer.EndLocation != "Osh" {
		t.Fatalf("locations = %q -> %q", offer.StartLocation, offer.EndLocation)
	}
	if offer.TravelTime != "08:30:00" {
		t.Fatalf("time = %q", offer.TravelTime)
	}
	if offer.DriverID != "0d6f6c7e-2b1a-4e43-9a57-3c1f8e0b9a11" {
		t.Fatalf("driver id not canonical: %q", offer.DriverID)
	}
	if offer.Source != SourceTelegram {
		t.Fatalf("source = %q", offer.Source)
	}

	draft.FreeSeats = 5
	if _, err := NewOffer("0d6f6c7e-2b1a-4e43-9a57-3c1f8e0b9a11", draft); !errors.Is(err, ErrBadSeatCounts) {
		t.Fatalf("got %v, want ErrBadSeatCounts", err)
	}
}

func TestOfferFits(t *testing.T) {
	offer := &Offer{TotalSeats: 4, FreeSeats: 3}
	if !offer.Fits(&Request{SeatAmount: "2"}) {
		t.Fatal("3 free seats should fit 2")
	}
	if offer.Fits(&Request{SeatAmount: "4"}) {
		t.Fatal("3 free seats should not fit 4")
	}
	if offer.Fits(&Request{SeatAmount: "full"}) {
		t.Fatal("partly taken car should not fit a full request")
	}
	if !(&Offer{TotalSeats: 4, FreeSeats: 4}).Fits(&Request{SeatAmount: "full"}) {
		t.Fatal("empty car should fit a full request")
	}
}

func TestParseOwnerIDs(t *testing.T) {
	if _, err := ParseDriverID("  "); !errors.Is(err, ErrDriverRequired) {
		t.Fatalf("empty driver: got %v", err)
	}
	if _, err := ParsePassengerID(""); !errors.Is(err, ErrPassengerMissing) {
		t.Fatalf("empty passenger: got %v", err)
	}

	var pe *ParseError
	if _, err := ParsePassengerID("abc"); !errors.As(err, &pe) || pe.Field != "passenger_id" {
		t.Fatalf("malformed passenger: got %v", err)
	}
	if _, err := NewRequest("abc", RequestDraft{TravelTime: "09:00", SeatAmount: "1", StartLocation: "a", EndLocation: "b"}); !errors.As(err, &pe) {
		t.Fatalf("NewRequest malformed id: got %v", err)
	}

	id, err := ParseDriverID(" 6a8e4f12-93c4-4d0e-b1f7-58a2c9d3e4b5 ")
	if err != nil || id != "6a8e4f12-93c4-4d0e-b1f7-58a2c9d3e4b5" {
		t.Fatalf("valid id: %q, %v", id, err)
	}
}
