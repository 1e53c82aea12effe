package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/general/contracts"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
	"gogogo/internal/software/matching"
	"gogogo/internal/software/notify"
)

// ----- fakes -----

type txMarker struct{}

type fakeUoW struct {
	detached int
	open     bool
}

func (u *fakeUoW) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (u *fakeUoW) WithinDetachedTx(ctx context.Context, fn func(context.Context) error) error {
	u.detached++
	u.open = true
	defer func() { u.open = false }()
	return fn(context.WithValue(ctx, txMarker{}, u))
}

type store struct {
	uow *fakeUoW

	offers   map[string]*ride.Offer
	requests map[string]*ride.Request
	channels map[string]user.Channel

	getErr error

	searchCalls  int
	channelCalls int
	phoneCalls   int
	photoCalls   int
	singleCalls  int
}

func (s *store) inTx(ctx context.Context) {
	if ctx.Value(txMarker{}) == nil || !s.uow.open {
		panic("repository used outside the job transaction")
	}
}

type offerRepo struct {
	ports.OfferRepository
	s *store
}

func (r offerRepo) GetByID(ctx context.Context, id string) (*ride.Offer, error) {
	r.s.inTx(ctx)
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	o, ok := r.s.offers[id]
	if !ok {
		return nil, ride.ErrOfferNotFound
	}
	return o, nil
}

func (r offerRepo) Search(ctx context.Context, q ports.OfferQuery) ([]*ride.Offer, error) {
	r.s.inTx(ctx)
	r.s.searchCalls++
	var out []*ride.Offer
	for _, o := range r.s.offers {
		if o.FreeSeats >= q.MinSeats {
			out = append(out, o)
		}
	}
	return out, nil
}

type requestRepo struct {
	ports.RequestRepository
	s *store
}

func (r requestRepo) GetByID(ctx context.Context, id string) (*ride.Request, error) {
	r.s.inTx(ctx)
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	req, ok := r.s.requests[id]
	if !ok {
		return nil, ride.ErrRequestNotFound
	}
	return req, nil
}

func (r requestRepo) Search(ctx context.Context, q ports.RequestQuery) ([]*ride.Request, error) {
	r.s.inTx(ctx)
	r.s.searchCalls++
	var out []*ride.Request
	for _, req := range r.s.requests {
		out = append(out, req)
	}
	return out, nil
}

type telegramRepo struct {
	ports.TelegramRepository
	s *store
}

func (r telegramRepo) FindChannelByUserID(ctx context.Context, id string) (*user.Channel, error) {
	r.s.inTx(ctx)
	r.s.singleCalls++
	ch, ok := r.s.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r telegramRepo) FindChannelsByUserIDs(ctx context.Context, ids []string) (map[string]user.Channel, error) {
	r.s.inTx(ctx)
	r.s.channelCalls++
	out := map[string]user.Channel{}
	for _, id := range ids {
		if ch, ok := r.s.channels[id]; ok {
			out[id] = ch
		}
	}
	return out, nil
}

type userRepo struct {
	ports.UserRepository
	s *store
}

func (r userRepo) FindPhonesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	r.s.inTx(ctx)
	r.s.phoneCalls++
	out := map[string]string{}
	for _, id := range ids {
		out[id] = "+996-" + id
	}
	return out, nil
}

type photoRepo struct {
	ports.CarPhotoRepository
	s *store
}

func (r photoRepo) ListURLsByDriverIDs(ctx context.Context, ids []string) (map[string][]string, error) {
	r.s.inTx(ctx)
	r.s.photoCalls++
	return map[string][]string{}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []any
	fail     func(any) bool
	uow      *fakeUoW
	inTx     bool
}

func (n *recordingNotifier) Notify(_ context.Context, payload any) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	if n.uow != nil && n.uow.open {
		n.inTx = true
	}
	if n.fail != nil && n.fail(payload) {
		return 0, errors.New("boom")
	}
	return 200, nil
}

func newStore() *store {
	return &store{
		uow:      &fakeUoW{},
		offers:   map[string]*ride.Offer{},
		requests: map[string]*ride.Request{},
		channels: map[string]user.Channel{},
	}
}

func newOrchestrator(s *store, n *recordingNotifier, verify bool) *Orchestrator {
	log := logger.NewWithWriter("test", io.Discard, slog.LevelError)
	offers, requests := offerRepo{s: s}, requestRepo{s: s}
	return NewOrchestrator(Deps{
		Logger:         log,
		UoW:            s.uow,
		Offers:         offers,
		Requests:       requests,
		Telegram:       telegramRepo{s: s},
		Engine:         matching.NewEngine(offers, requests, 0, 0, 0),
		Enricher:       notify.NewEnricher(userRepo{s: s}, telegramRepo{s: s}, photoRepo{s: s}),
		Dispatcher:     notify.NewDispatcher(n, log, 4),
		VerifyCapacity: verify,
	})
}

var travelDay = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func seedOffer(s *store, id, driver string, total, free int) *ride.Offer {
	o := &ride.Offer{
		ID: id, DriverID: driver, TravelDate: travelDay, TravelTime: "08:00:00",
		StartLocation: "Bishkek", EndLocation: "Osh", CarModel: "Camry", TotalSeats: total, FreeSeats: free,
	}
	s.offers[id] = o
	return o
}

func seedRequest(s *store, id, passenger, seats string) *ride.Request {
	r := &ride.Request{
		ID: id, PassengerID: passenger, TravelDate: travelDay, TravelTime: "09:00:00",
		StartLocation: "Bishkek", EndLocation: "Osh", SeatAmount: seats,
	}
	s.requests[id] = r
	return r
}

// ----- tests -----

func TestOfferJobSkipsPassengersWithoutChannel(t *testing.T) {
	s := newStore()
	seedOffer(s, "o1", "d1", 4, 4)
	for _, p := range []string{"p1", "p2", "p3", "p4", "p5"} {
		seedRequest(s, "r-"+p, p, "1")
	}
	for _, p := range []string{"p1", "p3", "p5"} {
		s.channels[p] = user.Channel{UserID: p, TelegramID: 100, ChatID: 200}
	}
	n := &recordingNotifier{uow: s.uow}

	report, err := newOrchestrator(s, n, false).ProcessOffer(context.Background(), "o1")
	if err != nil {
		t.Fatalf("ProcessOffer: %v", err)
	}
	if report.Matches != 5 || report.Attempted != 3 || report.Skipped != 2 || report.Delivered != 3 {
		t.Fatalf("report = %+v", report)
	}
	if s.channelCalls != 1 || s.phoneCalls != 1 || s.photoCalls != 1 {
		t.Fatalf("batch calls: channels=%d phones=%d photos=%d", s.channelCalls, s.phoneCalls, s.photoCalls)
	}
	if s.uow.detached != 1 {
		t.Fatalf("detached transactions = %d", s.uow.detached)
	}
	if n.inTx {
		t.Fatal("notifications were sent while the job transaction was open")
	}

	for _, p := range n.payloads {
		msg := p.(contracts.NewOfferFound)
		if msg.Type != contracts.TypeNewOfferFound || msg.PassengerChatID != 200 || msg.Offer.ID != "o1" {
			t.Fatalf("payload = %+v", msg)
		}
		if msg.Offer.DriverPhone == nil || *msg.Offer.DriverPhone != "+996-d1" {
			t.Fatalf("driver phone = %v", msg.Offer.DriverPhone)
		}
	}
}

func TestOfferJobSurvivesDeliveryFailure(t *testing.T) {
	s := newStore()
	seedOffer(s, "o1", "d1", 4, 4)
	for _, p := range []string{"p1", "p2", "p3"} {
		seedRequest(s, "r-"+p, p, "1")
		s.channels[p] = user.Channel{UserID: p, TelegramID: 1, ChatID: 1}
	}
	n := &recordingNotifier{fail: func(p any) bool { return p.(contracts.NewOfferFound).PassengerID == "p2" }}

	report, err := newOrchestrator(s, n, false).ProcessOffer(context.Background(), "o1")
	if err != nil {
		t.Fatalf("ProcessOffer: %v", err)
	}
	if len(n.payloads) != 3 || report.Delivered != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v, calls = %d", report, len(n.payloads))
	}
}

func TestDeletedEntityIsANoop(t *testing.T) {
	s := newStore()
	n := &recordingNotifier{}
	o := newOrchestrator(s, n, false)

	for name, run := range map[string]func() (ports.MatchReport, error){
		"offer":   func() (ports.MatchReport, error) { return o.ProcessOffer(context.Background(), "gone") },
		"request": func() (ports.MatchReport, error) { return o.ProcessRequest(context.Background(), "gone") },
	} {
		report, err := run()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if report.Found || report.Attempted != 0 {
			t.Fatalf("%s: report = %+v", name, report)
		}
	}
	if len(n.payloads) != 0 || s.searchCalls != 0 {
		t.Fatalf("side effects: notifications=%d searches=%d", len(n.payloads), s.searchCalls)
	}
}

func TestZeroMatchesMakesNoCalls(t *testing.T) {
	s := newStore()
	seedRequest(s, "r1", "p1", "3")
	seedOffer(s, "o1", "d1", 2, 2)
	n := &recordingNotifier{}

	report, err := newOrchestrator(s, n, false).ProcessRequest(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Matches != 0 || len(n.payloads) != 0 || s.channelCalls != 0 {
		t.Fatalf("report = %+v, notifications = %d", report, len(n.payloads))
	}
}

func TestDatastoreFaultPropagates(t *testing.T) {
	s := newStore()
	s.getErr = errors.New("connection reset by peer")
	n := &recordingNotifier{}

	_, err := newOrchestrator(s, n, false).ProcessRequest(context.Background(), "r1")
	var de *ride.DatastoreError
	if !errors.As(err, &de) || !de.Temporary() {
		t.Fatalf("got %v, want temporary DatastoreError", err)
	}
	if len(n.payloads) != 0 {
		t.Fatal("notified despite a datastore fault")
	}
}

func TestRequestJobSendsAggregate(t *testing.T) {
	s := newStore()
	seedRequest(s, "r1", "p1", "2")
	seedOffer(s, "o1", "d1", 4, 3)
	seedOffer(s, "o2", "d2", 4, 2)
	s.channels["p1"] = user.Channel{UserID: "p1", TelegramID: 11, ChatID: 12}
	n := &recordingNotifier{}

	report, err := newOrchestrator(s, n, false).ProcessRequest(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Matches != 2 || report.Attempted != 1 || report.Delivered != 1 {
		t.Fatalf("report = %+v", report)
	}
	msg := n.payloads[0].(contracts.MatchesFoundForRequest)
	if *msg.PassengerTelegramID != 11 || *msg.PassengerChatID != 12 || len(msg.Matches) != 2 {
		t.Fatalf("payload = %+v", msg)
	}
	if s.phoneCalls != 1 || s.photoCalls != 1 || s.channelCalls != 1 || s.singleCalls != 1 {
		t.Fatalf("calls: phones=%d photos=%d channels=%d single=%d", s.phoneCalls, s.photoCalls, s.channelCalls, s.singleCalls)
	}
}

func TestRequestJobWithoutChannelSendsNulls(t *testing.T) {
	s := newStore()
	seedRequest(s, "r1", "p1", "1")
	seedOffer(s, "o1", "d1", 4, 4)
	n := &recordingNotifier{}

	if _, err := newOrchestrator(s, n, false).ProcessRequest(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	msg := n.payloads[0].(contracts.MatchesFoundForRequest)
	if msg.PassengerTelegramID != nil || msg.PassengerChatID != nil {
		t.Fatalf("payload = %+v", msg)
	}
}

func TestVerifyCapacityFiltersFullDemand(t *testing.T) {
	s := newStore()
	seedOffer(s, "o1", "d1", 4, 2) // partly taken
	seedRequest(s, "whole", "p1", "full")
	seedRequest(s, "two", "p2", "2")
	seedRequest(s, "three", "p3", "3")
	s.channels["p1"] = user.Channel{UserID: "p1"}
	s.channels["p2"] = user.Channel{UserID: "p2"}
	s.channels["p3"] = user.Channel{UserID: "p3"}

	report, err := newOrchestrator(s, &recordingNotifier{}, true).ProcessOffer(context.Background(), "o1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Matches != 1 || report.Attempted != 1 {
		t.Fatalf("report = %+v", report)
	}

	report, err = newOrchestrator(s, &recordingNotifier{}, false).ProcessOffer(context.Background(), "o1")
	if err != nil || report.Matches != 3 {
		t.Fatalf("unverified report = %+v, %v", report, err)
	}
}

func TestHandleJobRouting(t *testing.T) {
	s := newStore()
	seedOffer(s, "o1", "d1", 4, 4)
	n := &recordingNotifier{}
	o := newOrchestrator(s, n, false)

	if err := o.HandleJob(context.Background(), []byte(`{"kind":"offer","entity_id":"o1"}`)); err != nil {
		t.Fatalf("offer job: %v", err)
	}
	if err := o.HandleJob(context.Background(), []byte(`{"kind":"request","entity_id":"missing"}`)); err != nil {
		t.Fatalf("request job for deleted entity: %v", err)
	}
	err := o.HandleJob(context.Background(), []byte(`not json`))
	if !errors.Is(err, ErrFatalJob) || !errors.Is(err, contracts.ErrMalformedJob) {
		t.Fatalf("malformed job: %v", err)
	}
	if s.uow.detached != 2 {
		t.Fatalf("detached = %d", s.uow.detached)
	}
}
