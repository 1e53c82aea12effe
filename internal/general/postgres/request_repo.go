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

// RequestRepo persists ride requests using pgx and plain SQL.
type RequestRepo struct{}

// NewRequestRepo constructs a new RequestRepo.
func NewRequestRepo() ports.RequestRepository {
	return &RequestRepo{}
}

const requestColumns = `
	id, created_at, updated_at, passenger_id, request_source::text,
	travel_start_date, travel_start_time::text, start_location, end_location, seat_amount`

func scanRequest(row pgx.Row) (*ride.Request, error) {
	var (
		r      ride.Request
		source string
	)
	if err := row.Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.PassengerID, &source,
		&r.TravelDate, &r.TravelTime, &r.StartLocation, &r.EndLocation, &r.SeatAmount,
	); err != nil {
		return nil, err
	}
	r.Source = ride.Source(source)
	r.TravelDate = ride.DateOnly(r.TravelDate)
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]*ride.Request, error) {
	defer rows.Close()

	out := make([]*ride.Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Create inserts a new request row.
func (repo *RequestRepo) Create(ctx context.Context, r *ride.Request) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ride_requests (
			id, passenger_id, request_source, travel_start_date, travel_start_time,
			start_location, end_location, start_key, end_key, seat_amount
		)
		VALUES ($1, $2, $3::request_source_enum, $4::date, $5::time, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		r.ID, r.PassengerID, r.Source.String(), r.TravelDate, r.TravelTime,
		r.StartLocation, r.EndLocation, location.Key(r.StartLocation), location.Key(r.EndLocation),
		r.SeatAmount,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ride.ErrOwnerNotFound
	}
	if err != nil {
		return ride.Datastore("request.create", err)
	}
	return nil
}

// GetByID returns one request or ride.ErrRequestNotFound.
func (repo *RequestRepo) GetByID(ctx context.Context, id string) (*ride.Request, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ride.ErrRequestNotFound
	}

	r, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM ride_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ride.ErrRequestNotFound
	}
	if err != nil {
		return nil, ride.Datastore("request.get", err)
	}
	return r, nil
}

// List returns requests ordered by travel date and time.
func (repo *RequestRepo) List(ctx context.Context, limit, offset int) ([]*ride.Request, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		ORDER BY travel_start_date, travel_start_time, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, ride.Datastore("request.list", err)
	}
	out, err := collectRequests(rows)
	return out, ride.Datastore("request.list", err)
}

// ListByPassenger returns every request of a passenger, newest first.
func (repo *RequestRepo) ListByPassenger(ctx context.Context, passengerID string) ([]*ride.Request, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(passengerID); err != nil {
		return []*ride.Request{}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		WHERE passenger_id = $1
		ORDER BY created_at DESC
	`, passengerID)
	if err != nil {
		return nil, ride.Datastore("request.list_by_passenger", err)
	}
	out, err := collectRequests(rows)
	return out, ride.Datastore("request.list_by_passenger", err)
}

// Delete removes a request; a missing row yields ride.ErrRequestNotFound.
func (repo *RequestRepo) Delete(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM ride_requests WHERE id = $1`, id)
	if err != nil {
		return ride.Datastore("request.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrRequestNotFound
	}
	return nil
}

// Search returns requests on the route whose travel date falls in [From, To].
// Seat demand is not compared here.
func (repo *RequestRepo) Search(ctx context.Context, q ports.RequestQuery) ([]*ride.Request, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+requestColumns+`
		FROM ride_requests
		WHERE start_key = $1
		  AND end_key = $2
		  AND travel_start_date BETWEEN $3::date AND $4::date
		ORDER BY travel_start_date, travel_start_time, id
		LIMIT $5 OFFSET $6
	`, q.StartKey, q.EndKey, q.From, q.To, q.Limit, q.Offset)
	if err != nil {
		return nil, ride.Datastore("request.search", err)
	}
	out, err := collectRequests(rows)
	return out, ride.Datastore("request.search", err)
}
