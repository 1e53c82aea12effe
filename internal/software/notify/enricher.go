package notify

import (
	"context"
	"slices"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/general/contracts"
	"gogogo/internal/ports"
)

// Enricher resolves contact data for a set of people with one lookup per kind.
type Enricher struct {
	users    ports.UserRepository
	telegram ports.TelegramRepository
	photos   ports.CarPhotoRepository
}

// NewEnricher wires the repositories the lookups read from.
func NewEnricher(users ports.UserRepository, telegram ports.TelegramRepository, photos ports.CarPhotoRepository) *Enricher {
	return &Enricher{users: users, telegram: telegram, photos: photos}
}

// Contacts is the result of one batched enrichment.
type Contacts struct {
	Channels map[string]user.Channel // user id -> channel
	Phones   map[string]string       // user id -> phone
	Photos   map[string][]string     // driver id -> urls
}

// Channel returns the channel of userID, if the user has one.
func (c Contacts) Channel(userID string) (user.Channel, bool) {
	ch, ok := c.Channels[userID]
	return ch, ok
}

// Offer embeds o with its driver's phone, username and car photos.
func (c Contacts) Offer(o *ride.Offer) contracts.EnrichedOffer {
	var phone, username *string
	if p, ok := c.Phones[o.DriverID]; ok {
		phone = &p
	}
	if ch, ok := c.Channels[o.DriverID]; ok {
		username = ch.Username
	}
	return contracts.NewEnrichedOffer(o, phone, username, c.Photos[o.DriverID])
}

// Load issues exactly one channel, one phone and one photo lookup.
// recipients need only a channel; drivers are looked up for all three.
func (e *Enricher) Load(ctx context.Context, recipients, drivers []string) (Contacts, error) {
	drivers = distinct(drivers)
	people := distinct(append(slices.Clone(recipients), drivers...))

	channels, err := e.telegram.FindChannelsByUserIDs(ctx, people)
	if err != nil {
		return Contacts{}, ride.Datastore("load channels", err)
	}
	phones, err := e.users.FindPhonesByIDs(ctx, drivers)
	if err != nil {
		return Contacts{}, ride.Datastore("load phones", err)
	}
	photos, err := e.photos.ListURLsByDriverIDs(ctx, drivers)
	if err != nil {
		return Contacts{}, ride.Datastore("load car photos", err)
	}

	return Contacts{Channels: channels, Phones: phones, Photos: photos}, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
