package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/castiq/internal/apperror"
	"github.com/sakif/castiq/internal/model"
	"github.com/sakif/castiq/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// Fails the build if *DB stops satisfying repository.CatchRepository.
var _ repository.CatchRepository = (*DB)(nil)

// catchColumns is the column list every query selects or returns,
// in the order scanCatch expects.
const catchColumns = `id, user_id, date, time, location, species, length_in, weight_lbs, temperature, bait`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCatch(s scanner) (*model.Catch, error) {
	var c model.Catch
	err := s.Scan(
		&c.ID, &c.UserID, &c.Date, &c.Time, &c.Location, &c.Species,
		&c.LengthIn, &c.WeightLbs, &c.Temperature, &c.Bait,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// storeError turns a driver error into an apperror.ErrStore carrying the
// driver's text, prefixed with the operation for the logs.
func storeError(op string, err error) error {
	return fmt.Errorf("sqlite: %s: %w", op, apperror.StoreFailed(err.Error(), err))
}

// Insert appends a new catch and returns the stored row, id included.
//
// RETURNING (SQLite 3.35+) hands back the stored row in the same round trip,
// so the caller sees exactly what was persisted.
func (db *DB) Insert(ctx context.Context, c *model.Catch) (*model.Catch, error) {
	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO catches (user_id, date, time, location, species, length_in, weight_lbs, temperature, bait)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+catchColumns,
		c.UserID, c.Date, c.Time, c.Location, c.Species,
		c.LengthIn, c.WeightLbs, c.Temperature, c.Bait,
	)

	stored, err := scanCatch(row)
	if err != nil {
		return nil, storeError("inserting catch", err)
	}
	return stored, nil
}

// ListByOwner returns every catch owned by owner, oldest id first.
// An owner with no catches gets an empty, non-nil slice.
func (db *DB) ListByOwner(ctx context.Context, owner string) ([]model.Catch, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+catchColumns+`
		 FROM catches
		 WHERE user_id = ?
		 ORDER BY id ASC`,
		owner,
	)
	if err != nil {
		return nil, storeError("listing catches", err)
	}
	// CRITICAL: always close rows, or the single connection never returns to the pool.
	defer rows.Close()

	catches := make([]model.Catch, 0)
	for rows.Next() {
		c, err := scanCatch(rows)
		if err != nil {
			return nil, storeError("scanning catch row", err)
		}
		catches = append(catches, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterating catches", err)
	}

	return catches, nil
}

// Update replaces every mutable field of the row matching id AND owner.
// Returns (nil, nil) when nothing matched.
//
// The owner goes into the WHERE clause, never the SET clause: an edit can't
// move a catch to a different owner.
func (db *DB) Update(ctx context.Context, id int64, owner string, c *model.Catch) (*model.Catch, error) {
	row := db.conn.QueryRowContext(ctx,
		`UPDATE catches
		 SET date = ?, time = ?, location = ?, species = ?,
		     length_in = ?, weight_lbs = ?, temperature = ?, bait = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+catchColumns,
		c.Date, c.Time, c.Location, c.Species,
		c.LengthIn, c.WeightLbs, c.Temperature, c.Bait,
		id, owner,
	)

	updated, err := scanCatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(fmt.Sprintf("updating catch %d", id), err)
	}
	return updated, nil
}

// Delete removes the row matching id AND owner and returns it.
// Returns (nil, nil) when nothing matched.
func (db *DB) Delete(ctx context.Context, id int64, owner string) (*model.Catch, error) {
	row := db.conn.QueryRowContext(ctx,
		`DELETE FROM catches
		 WHERE id = ? AND user_id = ?
		 RETURNING `+catchColumns,
		id, owner,
	)

	deleted, err := scanCatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(fmt.Sprintf("deleting catch %d", id), err)
	}
	return deleted, nil
}

// Probe reads at most one id.
func (db *DB) Probe(ctx context.Context) (int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM catches LIMIT 1`)
	if err != nil {
		return 0, storeError("probing catches", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, storeError("probing catches", err)
	}
	return n, nil
}
