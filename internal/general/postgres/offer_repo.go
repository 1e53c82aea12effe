package postgres

import (
	"context"
	"errors"
	"fmt"

	"gogogo/internal/domain/location"
	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OfferRepo persists ride offers using pgx and plain SQL.
type OfferRepo struct{}

// NewOfferRepo constructs a new OfferRepo.
func NewOfferRepo() ports.OfferRepository {
	return &OfferRepo{}
}

const offerColumns = `
	id, created_at, updated_at, driver_id, request_source::text,
	travel_start_date, travel_start_time::text, start_location, end_location,
	car_model, total_seat_amount, free_seats, price`

func scanOffer(row pgx.Row) (*ride.Offer, error) {
	var (
		o      ride.Offer
		source string
		price  *int32
	)
	if err := row.Scan(
		&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.DriverID, &source,
		&o.TravelDate, &o.TravelTime, &o.StartLocation, &o.EndLocation,
		&o.CarModel, &o.TotalSeats, &o.FreeSeats, &price,
	); err != nil {
		return nil, err
	}
	o.Source = ride.Source(source)
	o.TravelDate = ride.DateOnly(o.TravelDate)
	if price != nil {
		p := int(*price)
		o.Price = &p
	}
	return &o, nil
}

func collectOffers(rows pgx.Rows) ([]*ride.Offer, error) {
	defer rows.Close()

	out := make([]*ride.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Create inserts a new offer row. Locations are stored in display form alongside their keys.
func (repo *OfferRepo) Create(ctx context.Context, o *ride.Offer) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ride_offers (
			id, driver_id, request_source, travel_start_date, travel_start_time,
			start_location, end_location, start_key, end_key,
			car_model, total_seat_amount, free_seats, price
		)
		VALUES ($1, $2, $3::request_source_enum, $4::date, $5::time, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`,
		o.ID, o.DriverID, o.Source.String(), o.TravelDate, o.TravelTime,
		o.StartLocation, o.EndLocation, location.Key(o.StartLocation), location.Key(o.EndLocation),
		o.CarModel, o.TotalSeats, o.FreeSeats, o.Price,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ride.ErrOwnerNotFound
	}
	if err != nil {
		return ride.Datastore("offer.create", err)
	}
	return nil
}

// GetByID returns one offer or ride.ErrOfferNotFound.
func (repo *OfferRepo) GetByID(ctx context.Context, id string) (*ride.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ride.ErrOfferNotFound
	}

	o, err := scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM ride_offers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ride.ErrOfferNotFound
	}
	if err != nil {
		return nil, ride.Datastore("offer.get", err)
	}
	return o, nil
}

// List returns offers ordered by travel date and time.
func (repo *OfferRepo) List(ctx context.Context, limit, offset int) ([]*ride.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+`
		FROM ride_offers
		ORDER BY travel_start_date, travel_start_time, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, ride.Datastore("offer.list", err)
	}
	out, err := collectOffers(rows)
	return out, ride.Datastore("offer.list", err)
}

// ListByDriver returns every offer of a driver, newest first.
func (repo *OfferRepo) ListByDriver(ctx context.Context, driverID string) ([]*ride.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(driverID); err != nil {
		return []*ride.Offer{}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+`
		FROM ride_offers
		WHERE driver_id = $1
		ORDER BY created_at DESC
	`, driverID)
	if err != nil {
		return nil, ride.Datastore("offer.list_by_driver", err)
	}
	out, err := collectOffers(rows)
	return out, ride.Datastore("offer.list_by_driver", err)
}

// Delete removes an offer; a missing row yields ride.ErrOfferNotFound.
func (repo *OfferRepo) Delete(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM ride_offers WHERE id = $1`, id)
	if err != nil {
		return ride.Datastore("offer.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrOfferNotFound
	}
	return nil
}

// Search returns offers on the route with enough free seats whose travel date falls in [From, To].
func (repo *OfferRepo) Search(ctx context.Context, q ports.OfferQuery) ([]*ride.Offer, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+offerColumns+`
		FROM ride_offers
		WHERE start_key = $1
		  AND end_key = $2
		  AND free_seats >= $3
		  AND travel_start_date BETWEEN $4::date AND $5::date
		ORDER BY travel_start_date, travel_start_time, id
		LIMIT $6 OFFSET $7
	`, q.StartKey, q.EndKey, q.MinSeats, q.From, q.To, q.Limit, q.Offset)
	if err != nil {
		return nil, ride.Datastore("offer.search", err)
	}
	out, err := collectOffers(rows)
	return out, ride.Datastore("offer.search", err)
}
