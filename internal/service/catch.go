// Package service contains the business rules of the catch log.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)     → parses requests, maps errors to status codes
//	Service (rules)    → owner presence, date/time defaults, owner scoping
//	Repository (store) → one round trip to the record store
//
// The service never sees HTTP and never sees SQL or PostgREST; it talks to
// repository.CatchRepository only, so tests pass a mock.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/castiq/internal/apperror"
	"github.com/sakif/castiq/internal/auth"
	"github.com/sakif/castiq/internal/model"
	"github.com/sakif/castiq/internal/repository"
)

// Wire formats for the server-filled defaults.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MsgMissingOwner is returned whenever the owner identifier is empty.
const MsgMissingOwner = "Missing user_id"

// CatchService enforces the catch rules on top of a CatchRepository.
// It holds no per-request state and is shared by all requests.
type CatchService struct {
	repo   repository.CatchRepository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a CatchService.
type Option func(*CatchService)

// WithClock replaces time.Now as the source of default dates and times.
func WithClock(now func() time.Time) Option {
	return func(s *CatchService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCatchService creates a CatchService over repo.
func NewCatchService(repo repository.CatchRepository, logger *slog.Logger, opts ...Option) *CatchService {
	s := &CatchService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log stores a new catch for c.UserID.
//
// An empty Date becomes today's date and an empty Time becomes the current
// HH:MM, both from the server clock. Values the caller did send are stored
// exactly as sent. Any ID on the input is ignored; the store assigns one.
func (s *CatchService) Log(ctx context.Context, c *model.Catch) (*model.Catch, error) {
	if err := s.checkOwner(ctx, c.UserID); err != nil {
		return nil, err
	}

	rec := *c
	rec.ID = 0
	now := s.now()
	if rec.Date == "" {
		rec.Date = now.Format(DateLayout)
	}
	if rec.Time == "" {
		rec.Time = now.Format(TimeLayout)
	}

	stored, err := s.repo.Insert(ctx, &rec)
	if err != nil {
		s.logger.Error("failed to log catch",
			slog.String("user_id", rec.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("logging catch: %w", err)
	}

	s.logger.Info("catch logged",
		slog.Int64("id", stored.ID),
		slog.String("user_id", stored.UserID),
	)
	return stored, nil
}

// List returns owner's catches in ascending id order. No catches is an
// empty slice, not an error.
func (s *CatchService) List(ctx context.Context, owner string) ([]model.Catch, error) {
	if err := s.checkOwner(ctx, owner); err != nil {
		return nil, err
	}

	catches, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("failed to list catches",
			slog.String("user_id", owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing catches: %w", err)
	}
	if catches == nil {
		catches = []model.Catch{}
	}
	return catches, nil
}

// Delete removes catch id if, and only if, owner owns it.
//
// A missing id and an id owned by someone else both yield
// apperror.ErrNotFound with the same message, so a caller can't probe
// for other owners' records.
func (s *CatchService) Delete(ctx context.Context, id int64, owner string) error {
	if err := s.checkOwner(ctx, owner); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id, owner)
	if err != nil {
		s.logger.Error("failed to delete catch",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting catch: %w", err)
	}
	if deleted == nil {
		return apperror.NotFoundOrUnauthorized("Catch")
	}

	s.logger.Info("catch deleted", slog.Int64("id", id), slog.String("user_id", owner))
	return nil
}

// Edit replaces every mutable field of catch id with c's values. c.UserID
// is the authority for ownership; the path id wins over any id in c.
func (s *CatchService) Edit(ctx context.Context, id int64, c *model.Catch) (*model.Catch, error) {
	if err := s.checkOwner(ctx, c.UserID); err != nil {
		return nil, err
	}

	rec := *c
	rec.ID = 0

	updated, err := s.repo.Update(ctx, id, rec.UserID, &rec)
	if err != nil {
		s.logger.Error("failed to edit catch",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("editing catch: %w", err)
	}
	if updated == nil {
		return nil, apperror.NotFoundOrUnauthorized("Catch")
	}

	s.logger.Info("catch edited", slog.Int64("id", id), slog.String("user_id", rec.UserID))
	return updated, nil
}

// Probe performs the liveness read and reports how many rows it saw.
func (s *CatchService) Probe(ctx context.Context) (int, error) {
	return s.repo.Probe(ctx)
}

// checkOwner rejects an empty owner and, when the request carries a
// verified identity, an owner that doesn't match it. Without a verified
// identity the claimed owner is trusted as-is.
func (s *CatchService) checkOwner(ctx context.Context, owner string) error {
	if owner == "" {
		return apperror.ValidationFailed("user_id", MsgMissingOwner)
	}
	if verified, ok := auth.UserIDFromContext(ctx); ok && verified != owner {
		s.logger.Warn("owner does not match verified identity",
			slog.String("claimed", owner),
			slog.String("verified", verified),
		)
		return apperror.Forbidden("user_id does not match the authenticated user")
	}
	return nil
}
