package postgres

import (
	"context"
	"errors"

	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CarPhotoRepo persists driver car photos using pgx and plain SQL.
type CarPhotoRepo struct{}

// NewCarPhotoRepo constructs a new CarPhotoRepo.
func NewCarPhotoRepo() ports.CarPhotoRepository {
	return &CarPhotoRepo{}
}

// Create inserts a new photo row.
func (repo *CarPhotoRepo) Create(ctx context.Context, p *ride.CarPhoto) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO car_photos (id, driver_id, url)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, p.ID, p.DriverID, p.URL).Scan(&p.CreatedAt)
	if isForeignKeyViolation(err) {
		return ride.ErrOwnerNotFound
	}
	if err != nil {
		return ride.Datastore("car_photo.create", err)
	}
	return nil
}

// GetByID returns one photo or ride.ErrPhotoNotFound.
func (repo *CarPhotoRepo) GetByID(ctx context.Context, id string) (*ride.CarPhoto, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ride.ErrPhotoNotFound
	}

	var p ride.CarPhoto
	err = tx.QueryRow(ctx, `
		SELECT id, driver_id, url, created_at FROM car_photos WHERE id = $1
	`, id).Scan(&p.ID, &p.DriverID, &p.URL, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ride.ErrPhotoNotFound
	}
	if err != nil {
		return nil, ride.Datastore("car_photo.get", err)
	}
	return &p, nil
}

// ListByDriver returns a driver's photos, oldest first.
func (repo *CarPhotoRepo) ListByDriver(ctx context.Context, driverID string) ([]*ride.CarPhoto, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ride.CarPhoto, 0)
	if _, err := uuid.Parse(driverID); err != nil {
		return out, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT id, driver_id, url, created_at
		FROM car_photos
		WHERE driver_id = $1
		ORDER BY created_at, id
	`, driverID)
	if err != nil {
		return nil, ride.Datastore("car_photo.list", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ride.CarPhoto
		if err := rows.Scan(&p.ID, &p.DriverID, &p.URL, &p.CreatedAt); err != nil {
			return nil, ride.Datastore("car_photo.list", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, ride.Datastore("car_photo.list", err)
	}
	return out, nil
}

// Delete removes a photo; a missing row yields ride.ErrPhotoNotFound.
func (repo *CarPhotoRepo) Delete(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM car_photos WHERE id = $1`, id)
	if err != nil {
		return ride.Datastore("car_photo.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrPhotoNotFound
	}
	return nil
}

// ListURLsByDriverIDs resolves the photo urls of many drivers in one round-trip.
func (repo *CarPhotoRepo) ListURLsByDriverIDs(ctx context.Context, driverIDs []string) (map[string][]string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	keys := uniqueIDs(driverIDs)
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT driver_id, url
		FROM car_photos
		WHERE driver_id = ANY($1)
		ORDER BY created_at, id
	`, keys)
	if err != nil {
		return nil, ride.Datastore("car_photo.list_urls", err)
	}
	defer rows.Close()

	for rows.Next() {
		var driverID, url string
		if err := rows.Scan(&driverID, &url); err != nil {
			return nil, ride.Datastore("car_photo.list_urls", err)
		}
		out[driverID] = append(out[driverID], url)
	}
	if err := rows.Err(); err != nil {
		return nil, ride.Datastore("car_photo.list_urls", err)
	}
	return out, nil
}
