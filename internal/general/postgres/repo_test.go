package postgres

import (
	"context"
	"errors"
	"testing"

	"gogogo/internal/domain/ride"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// insertTx fails every QueryRow with err.
type insertTx struct {
	pgx.Tx
	err error
}

func (tx insertTx) QueryRow(context.Context, string, ...any) pgx.Row { return errRow{tx.err} }

func withTx(tx pgx.Tx) context.Context {
	return context.WithValue(context.Background(), txKey, tx)
}

func TestCreateMapsMissingOwner(t *testing.T) {
	fk := withTx(insertTx{err: &pgconn.PgError{Code: "23503"}})

	if err := NewOfferRepo().Create(fk, &ride.Offer{}); !errors.Is(err, ride.ErrOwnerNotFound) {
		t.Fatalf("offer: got %v, want ErrOwnerNotFound", err)
	}
	if err := NewRequestRepo().Create(fk, &ride.Request{}); !errors.Is(err, ride.ErrOwnerNotFound) {
		t.Fatalf("request: got %v, want ErrOwnerNotFound", err)
	}
	if err := NewCarPhotoRepo().Create(fk, &ride.CarPhoto{}); !errors.Is(err, ride.ErrOwnerNotFound) {
		t.Fatalf("photo: got %v, want ErrOwnerNotFound", err)
	}

	down := withTx(insertTx{err: &pgconn.PgError{Code: "08006"}})
	var de *ride.DatastoreError
	if err := NewOfferRepo().Create(down, &ride.Offer{}); !errors.As(err, &de) {
		t.Fatalf("connection fault: got %v, want DatastoreError", err)
	}
}
