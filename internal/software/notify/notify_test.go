package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
)

func quietLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard, slog.LevelError)
}

type flakyNotifier struct {
	mu       sync.Mutex
	calls    []string
	failFor  string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (n *flakyNotifier) Notify(_ context.Context, payload any) (int, error) {
	cur := n.inFlight.Add(1)
	defer n.inFlight.Add(-1)
	for {
		p := n.peak.Load()
		if cur <= p || n.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	target := payload.(string)
	n.mu.Lock()
	n.calls = append(n.calls, target)
	n.mu.Unlock()
	if target == n.failFor {
		return 0, errors.New("connection refused")
	}
	return http.StatusOK, nil
}

func TestDispatchToleratesPartialFailure(t *testing.T) {
	n := &flakyNotifier{failFor: "b"}
	d := NewDispatcher(n, quietLogger(), 8)

	res := d.Dispatch(context.Background(), []Delivery{
		{Target: "a", Payload: "a"},
		{Target: "b", Payload: "b"},
		{Target: "c", Payload: "c"},
	})

	if len(n.calls) != 3 {
		t.Fatalf("attempted %v, want all three", n.calls)
	}
	if res.Delivered != 2 || res.Failed != 1 {
		t.Fatalf("delivered=%d failed=%d", res.Delivered, res.Failed)
	}
	var de *ride.DeliveryError
	if !errors.As(res.Outcomes[1].Err, &de) || de.Target != "b" {
		t.Fatalf("outcome[1] = %+v", res.Outcomes[1])
	}
	if res.Outcomes[0].Err != nil || res.Outcomes[2].Err != nil {
		t.Fatalf("siblings failed: %+v", res.Outcomes)
	}
}

func TestDispatchBoundsParallelism(t *testing.T) {
	n := &flakyNotifier{}
	d := NewDispatcher(n, quietLogger(), 2)

	batch := make([]Delivery, 10)
	for i := range batch {
		batch[i] = Delivery{Target: "x", Payload: "x"}
	}
	res := d.Dispatch(context.Background(), batch)

	if res.Delivered != 10 {
		t.Fatalf("delivered = %d", res.Delivered)
	}
	if p := n.peak.Load(); p > 2 {
		t.Fatalf("peak in-flight = %d, want <= 2", p)
	}
}

type countingTelegram struct {
	ports.TelegramRepository
	calls    int
	channels map[string]user.Channel
}

func (c *countingTelegram) FindChannelsByUserIDs(_ context.Context, ids []string) (map[string]user.Channel, error) {
	c.calls++
	out := map[string]user.Channel{}
	for _, id := range ids {
		if ch, ok := c.channels[id]; ok {
			out[id] = ch
		}
	}
	return out, nil
}

type countingUsers struct {
	ports.UserRepository
	calls int
	asked []string
	err   error
}

func (c *countingUsers) FindPhonesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	c.calls++
	c.asked = ids
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]string{}
	for _, id := range ids {
		out[id] = "+996" + id
	}
	return out, nil
}

type countingPhotos struct {
	ports.CarPhotoRepository
	calls int
}

func (c *countingPhotos) ListURLsByDriverIDs(_ context.Context, ids []string) (map[string][]string, error) {
	c.calls++
	return map[string][]string{"d1": {"https://img/1.png"}}, nil
}

func TestLoadBatchesEachKindOnce(t *testing.T) {
	username := "ivan"
	tg := &countingTelegram{channels: map[string]user.Channel{
		"d1": {UserID: "d1", TelegramID: 10, ChatID: 10, Username: &username},
		"p1": {UserID: "p1", TelegramID: 20, ChatID: 21},
	}}
	users := &countingUsers{}
	photos := &countingPhotos{}

	contacts, err := NewEnricher(users, tg, photos).Load(context.Background(),
		[]string{"p1", "p2", "p1"}, []string{"d1", "d1", "d2"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tg.calls != 1 || users.calls != 1 || photos.calls != 1 {
		t.Fatalf("calls: channels=%d phones=%d photos=%d", tg.calls, users.calls, photos.calls)
	}
	if len(users.asked) != 2 {
		t.Fatalf("phones asked for %v, want distinct drivers", users.asked)
	}

	if _, ok := contacts.Channel("p2"); ok {
		t.Fatal("p2 has no channel")
	}
	offer := &ride.Offer{ID: "o1", DriverID: "d1", TravelDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}
	enriched := contacts.Offer(offer)
	if enriched.DriverPhone == nil || *enriched.DriverPhone != "+996d1" {
		t.Fatalf("phone = %v", enriched.DriverPhone)
	}
	if enriched.DriverUsername == nil || *enriched.DriverUsername != "ivan" || len(enriched.CarPhotos) != 1 {
		t.Fatalf("enriched = %+v", enriched)
	}

	other := contacts.Offer(&ride.Offer{ID: "o2", DriverID: "d2"})
	if other.DriverUsername != nil || other.CarPhotos == nil || len(other.CarPhotos) != 0 {
		t.Fatalf("d2 enriched = %+v", other)
	}
}

func TestLoadWrapsDatastoreFaults(t *testing.T) {
	_, err := NewEnricher(&countingUsers{err: errors.New("timeout")}, &countingTelegram{}, &countingPhotos{}).
		Load(context.Background(), nil, []string{"d1"})
	var de *ride.DatastoreError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DatastoreError", err)
	}
}
