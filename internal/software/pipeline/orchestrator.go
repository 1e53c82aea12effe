package pipeline

import (
	"context"
	"errors"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/general/contracts"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
	"gogogo/internal/software/matching"
	"gogogo/internal/software/notify"
)

// Orchestrator runs one match job: re-read the entity, search its counterparts,
// enrich them in batch and fan the notifications out.
type Orchestrator struct {
	logger         *logger.Logger
	uow            ports.UnitOfWork
	offers         ports.OfferRepository
	requests       ports.RequestRepository
	telegram       ports.TelegramRepository
	engine         *matching.Engine
	enricher       *notify.Enricher
	dispatcher     *notify.Dispatcher
	verifyCapacity bool
}

// Deps lists everything an Orchestrator reads from or writes to.
type Deps struct {
	Logger     *logger.Logger
	UoW        ports.UnitOfWork
	Offers     ports.OfferRepository
	Requests   ports.RequestRepository
	Telegram   ports.TelegramRepository
	Engine     *matching.Engine
	Enricher   *notify.Enricher
	Dispatcher *notify.Dispatcher
	// VerifyCapacity drops matches whose seat demand the offer cannot hold.
	VerifyCapacity bool
}

// NewOrchestrator builds an orchestrator from its explicit dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		logger:         deps.Logger,
		uow:            deps.UoW,
		offers:         deps.Offers,
		requests:       deps.Requests,
		telegram:       deps.Telegram,
		engine:         deps.Engine,
		enricher:       deps.Enricher,
		dispatcher:     deps.Dispatcher,
		verifyCapacity: deps.VerifyCapacity,
	}
}

var _ ports.MatchProcessor = (*Orchestrator)(nil)

// ProcessOffer notifies every matched passenger that has a channel about a new offer.
func (o *Orchestrator) ProcessOffer(ctx context.Context, offerID string) (ports.MatchReport, error) {
	report := ports.MatchReport{Kind: ports.JobOffer, EntityID: offerID}
	var deliveries []notify.Delivery

	err := o.uow.WithinDetachedTx(ctx, func(txCtx context.Context) error {
		offer, err := o.offers.GetByID(txCtx, offerID)
		if err != nil {
			return ride.Datastore("get offer", err)
		}
		report.Found = true

		matches, err := o.engine.MatchOffer(txCtx, offer)
		if err != nil {
			return err
		}
		if o.verifyCapacity {
			matches = keep(matches, offer.Fits)
		}
		report.Matches = len(matches)
		if len(matches) == 0 {
			return nil
		}

		passengers := make([]string, len(matches))
		for i, req := range matches {
			passengers[i] = req.PassengerID
		}
		contacts, err := o.enricher.Load(txCtx, passengers, []string{offer.DriverID})
		if err != nil {
			return err
		}

		enriched := contacts.Offer(offer)
		for _, req := range matches {
			ch, ok := contacts.Channel(req.PassengerID)
			if !ok {
				report.Skipped++
				o.logger.Debug(txCtx, "notification_skipped", "Passenger has no linked channel",
					map[string]any{"passenger_id": req.PassengerID, "request_id": req.ID})
				continue
			}
			deliveries = append(deliveries, notify.Delivery{
				Target:  req.PassengerID,
				Payload: contracts.NewNewOfferFound(enriched, req.ID, req.PassengerID, ch.ChatID),
			})
		}
		return nil
	})

	return o.finish(ctx, report, deliveries, err)
}

// ProcessRequest sends the initiating passenger one aggregate notification of matched offers.
func (o *Orchestrator) ProcessRequest(ctx context.Context, requestID string) (ports.MatchReport, error) {
	report := ports.MatchReport{Kind: ports.JobRequest, EntityID: requestID}
	var deliveries []notify.Delivery

	err := o.uow.WithinDetachedTx(ctx, func(txCtx context.Context) error {
		req, err := o.requests.GetByID(txCtx, requestID)
		if err != nil {
			return ride.Datastore("get request", err)
		}
		report.Found = true

		// absent channel is fine, the payload then carries nulls
		channel, err := o.telegram.FindChannelByUserID(txCtx, req.PassengerID)
		if err != nil {
			return ride.Datastore("get passenger channel", err)
		}

		matches, err := o.engine.MatchRequest(txCtx, req)
		if err != nil {
			return err
		}
		if o.verifyCapacity {
			matches = keep(matches, func(offer *ride.Offer) bool { return offer.Fits(req) })
		}
		report.Matches = len(matches)
		if len(matches) == 0 {
			return nil
		}

		drivers := make([]string, len(matches))
		for i, offer := range matches {
			drivers[i] = offer.DriverID
		}
		contacts, err := o.enricher.Load(txCtx, nil, drivers)
		if err != nil {
			return err
		}

		enriched := make([]contracts.EnrichedOffer, len(matches))
		for i, offer := range matches {
			enriched[i] = contacts.Offer(offer)
		}

		telegramID, chatID := channelIDs(channel)
		deliveries = append(deliveries, notify.Delivery{
			Target:  req.PassengerID,
			Payload: contracts.NewMatchesFoundForRequest(req.ID, req.PassengerID, telegramID, chatID, enriched),
		})
		return nil
	})

	return o.finish(ctx, report, deliveries, err)
}

// finish dispatches what the transaction collected. The session is already released here.
func (o *Orchestrator) finish(ctx context.Context, report ports.MatchReport, deliveries []notify.Delivery, err error) (ports.MatchReport, error) {
	details := map[string]any{"kind": report.Kind, "entity_id": report.EntityID}

	if errors.Is(err, ride.ErrNotFound) {
		o.logger.Info(ctx, "match_job_entity_gone", "Entity no longer exists, nothing to do", details)
		return ports.MatchReport{Kind: report.Kind, EntityID: report.EntityID}, nil
	}
	if err != nil {
		// begin and commit faults surface unwrapped from the unit of work
		var pe *ride.ParseError
		if !errors.As(err, &pe) {
			err = ride.Datastore("match job", err)
		}
		o.logger.Error(ctx, "match_job_failed", "Match job failed", err, details)
		return report, err
	}

	if len(deliveries) > 0 {
		res := o.dispatcher.Dispatch(ctx, deliveries)
		report.Attempted = len(deliveries)
		report.Delivered = res.Delivered
		report.Failed = res.Failed
	}

	o.logger.Info(ctx, "match_job_done", "Match job processed", report)
	return report, nil
}

func channelIDs(ch *user.Channel) (telegramID, chatID *int64) {
	if ch == nil {
		return nil, nil
	}
	tg, chat := ch.TelegramID, ch.ChatID
	return &tg, &chat
}

func keep[T any](items []T, ok func(T) bool) []T {
	out := items[:0:0]
	for _, it := range items {
		if ok(it) {
			out = append(out, it)
		}
	}
	return out
}
