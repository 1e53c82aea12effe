package matching

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"gogogo/internal/domain/location"
	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

// memOffers filters like the SQL search: keys, seats, inclusive date range, ordered.
type memOffers struct {
	ports.OfferRepository
	rows  []*ride.Offer
	last  ports.OfferQuery
	calls int
	err   error
}

func (m *memOffers) Search(_ context.Context, q ports.OfferQuery) ([]*ride.Offer, error) {
	m.calls++
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	var out []*ride.Offer
	for _, o := range m.rows {
		if location.Key(o.StartLocation) != q.StartKey || location.Key(o.EndLocation) != q.EndKey {
			continue
		}
		if o.FreeSeats < q.MinSeats || o.TravelDate.Before(q.From) || o.TravelDate.After(q.To) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TravelDate.Equal(out[j].TravelDate) {
			return out[i].TravelDate.Before(out[j].TravelDate)
		}
		return out[i].TravelTime < out[j].TravelTime
	})
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type memRequests struct {
	ports.RequestRepository
	rows []*ride.Request
	last ports.RequestQuery
}

func (m *memRequests) Search(_ context.Context, q ports.RequestQuery) ([]*ride.Request, error) {
	m.last = q
	var out []*ride.Request
	for _, r := range m.rows {
		if location.Key(r.StartLocation) != q.StartKey || location.Key(r.EndLocation) != q.EndKey {
			continue
		}
		if r.TravelDate.Before(q.From) || r.TravelDate.After(q.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func day(s string) time.Time {
	d, err := ride.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func offer(id, date, clock string, free int) *ride.Offer {
	return &ride.Offer{
		ID: id, DriverID: "d-" + id, TravelDate: day(date), TravelTime: clock,
		StartLocation: "Bishkek", EndLocation: "Osh", CarModel: "Camry",
		TotalSeats: 4, FreeSeats: free,
	}
}

func request(id, date, seats string) *ride.Request {
	return &ride.Request{
		ID: id, PassengerID: "p-" + id, TravelDate: day(date), TravelTime: "09:00:00",
		StartLocation: "Bishkek", EndLocation: "Osh", SeatAmount: seats,
	}
}

func ids[T interface{ *ride.Offer | *ride.Request }](rows []T) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		switch v := any(r).(type) {
		case *ride.Offer:
			out = append(out, v.ID)
		case *ride.Request:
			out = append(out, v.ID)
		}
	}
	return out
}

func TestOfferSearchRespectsFreeSeats(t *testing.T) {
	offers := &memOffers{rows: []*ride.Offer{offer("roomy", "2025-06-10", "08:00:00", 3)}}
	engine := NewEngine(offers, &memRequests{}, 0, 0, 0)

	got, err := engine.SearchOffers(context.Background(), ports.OfferSearchInput{
		StartLocation: "  бишкек ", EndLocation: "OSH", SeatsNeeded: 2, Date: "2025-06-10",
	})
	if err != nil {
		t.Fatalf("SearchOffers: %v", err)
	}
	if len(got) != 1 || got[0].ID != "roomy" {
		t.Fatalf("got %v, want [roomy]", ids(got))
	}

	offers.rows[0].FreeSeats = 1
	got, err = engine.SearchOffers(context.Background(), ports.OfferSearchInput{
		StartLocation: "Bishkek", EndLocation: "Osh", SeatsNeeded: 2, Date: "2025-06-10",
	})
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v; want no offers", ids(got), err)
	}
}

func TestOfferWindowIsSameDay(t *testing.T) {
	offers := &memOffers{rows: []*ride.Offer{
		offer("late", "2025-06-10", "22:00:00", 2),
		offer("early", "2025-06-10", "06:00:00", 2),
		offer("tomorrow", "2025-06-11", "06:00:00", 2),
		offer("yesterday", "2025-06-09", "06:00:00", 2),
	}}
	engine := NewEngine(offers, &memRequests{}, 0, 0, 0)

	got, err := engine.OffersFor(context.Background(), "Bishkek", "Osh", 1, day("2025-06-10"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"early", "late"}; !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	if !offers.last.From.Equal(day("2025-06-10")) || !offers.last.To.Equal(day("2025-06-10")) {
		t.Fatalf("window = [%v, %v]", offers.last.From, offers.last.To)
	}
	if offers.last.Limit != DefaultLimit || offers.last.Offset != 0 {
		t.Fatalf("paging = %d/%d", offers.last.Limit, offers.last.Offset)
	}
}

func TestRequestWindowIsTwoDays(t *testing.T) {
	requests := &memRequests{rows: []*ride.Request{
		request("d0", "2025-06-10", "1"),
		request("d2", "2025-06-12", "full"),
		request("d3", "2025-06-13", "1"),
	}}
	engine := NewEngine(&memOffers{}, requests, 0, 0, 0)

	got, err := engine.SearchRequests(context.Background(), ports.RequestSearchInput{
		StartLocation: "bishkek", EndLocation: "osh", Date: "2025-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"d0", "d2"}; !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestSearchRejectsBadDate(t *testing.T) {
	offers := &memOffers{}
	engine := NewEngine(offers, &memRequests{}, 0, 0, 0)

	_, err := engine.SearchOffers(context.Background(), ports.OfferSearchInput{Date: "10.06.2025"})
	var pe *ride.ParseError
	if !errors.As(err, &pe) || pe.Field != "date" {
		t.Fatalf("got %v, want ParseError on date", err)
	}
	if offers.calls != 0 {
		t.Fatal("datastore was queried for an invalid date")
	}
}

func TestUnknownLocationYieldsNothing(t *testing.T) {
	engine := NewEngine(&memOffers{rows: []*ride.Offer{offer("a", "2025-06-10", "08:00:00", 4)}}, &memRequests{}, 0, 0, 0)
	got, err := engine.OffersFor(context.Background(), "Atlantis", "Osh", 1, day("2025-06-10"), 10, 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", ids(got), err)
	}
}

func TestPagingIsClamped(t *testing.T) {
	offers := &memOffers{}
	engine := NewEngine(offers, &memRequests{}, 0, 0, 0)
	if _, err := engine.OffersFor(context.Background(), "a", "b", 0, day("2025-06-10"), 1000, -5); err != nil {
		t.Fatal(err)
	}
	if offers.last.Limit != MaxLimit || offers.last.Offset != 0 || offers.last.MinSeats != 1 {
		t.Fatalf("query = %+v", offers.last)
	}
}

func TestMatchRequestUsesSeatDemand(t *testing.T) {
	offers := &memOffers{}
	engine := NewEngine(offers, &memRequests{}, 0, 0, 0)

	if _, err := engine.MatchRequest(context.Background(), request("r", "2025-06-10", "3")); err != nil {
		t.Fatal(err)
	}
	if offers.last.MinSeats != 3 {
		t.Fatalf("MinSeats = %d, want 3", offers.last.MinSeats)
	}
	if _, err := engine.MatchRequest(context.Background(), request("r", "2025-06-10", "full")); err != nil {
		t.Fatal(err)
	}
	if offers.last.MinSeats != 1 {
		t.Fatalf("MinSeats for full = %d, want 1", offers.last.MinSeats)
	}
}

func TestDatastoreFaultIsWrapped(t *testing.T) {
	engine := NewEngine(&memOffers{err: errors.New("conn reset")}, &memRequests{}, 0, 0, 0)
	_, err := engine.OffersFor(context.Background(), "a", "b", 1, day("2025-06-10"), 0, 0)
	var de *ride.DatastoreError
	if !errors.As(err, &de) || !de.Temporary() {
		t.Fatalf("got %v, want DatastoreError", err)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
