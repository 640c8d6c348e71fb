// Package registration creates-or-fetches the durable record for an end-user.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/antoniostano/linguai/internal/users"
)

// Service registers users idempotently; safe to call on every session start.
type Service struct {
	store users.Store
}

func New(store users.Store) *Service {
	return &Service{store: store}
}

// Register returns the user's external ID, inserting a new record with null
// preferences when none exists. An existing record is returned unchanged;
// profile fields are never overwritten.
func (s *Service) Register(ctx context.Context, rec users.NewRecord) (int64, error) {
	existing, err := s.store.FindByExternalID(ctx, rec.ExternalID)
	if err == nil {
		log.Printf("registration: user %d already exists", existing.ExternalID)
		return existing.ExternalID, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return 0, fmt.Errorf("register user %d: %w", rec.ExternalID, err)
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("register user %d: %w", rec.ExternalID, err)
	}
	log.Printf("registration: user %d created", id)
	return id, nil
}
