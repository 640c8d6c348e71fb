// Package prefs reconciles preference fields against the durable user store.
// The durable store is the single source of truth for "does this preference
// already hold this value"; callers mirror values into the ephemeral cache
// themselves.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/antoniostano/linguai/internal/users"
)

// ErrUserNotFound reports a preference operation against an unregistered
// identity. Callers treat it as a silent no-op, not a user-facing error.
var ErrUserNotFound = errors.New("user not registered")

// Service performs durable-side idempotent preference reads and writes.
type Service struct {
	store users.Store
}

func New(store users.Store) *Service {
	return &Service{store: store}
}

// Get resolves the durable value of one preference field. An unregistered
// user always resolves to absent; resolution never proceeds for an unknown
// identity.
func (s *Service) Get(ctx context.Context, field users.PreferenceField, externalID int64) (string, bool, error) {
	if _, err := s.store.FindByExternalID(ctx, externalID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			log.Printf("prefs: user %d not found, %s unresolved", externalID, field)
			return "", false, nil
		}
		return "", false, fmt.Errorf("prefs get %s: %w", field, err)
	}

	value, ok, err := s.store.GetPreference(ctx, externalID, field)
	if err != nil {
		return "", false, fmt.Errorf("prefs get %s: %w", field, err)
	}
	return value, ok, nil
}

// Set writes one preference field for an existing user. Writing the value the
// field already holds is a no-op; an unknown user yields ErrUserNotFound and
// never creates a record.
func (s *Service) Set(ctx context.Context, field users.PreferenceField, externalID int64, value string) error {
	if _, err := s.store.FindByExternalID(ctx, externalID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			log.Printf("prefs: user %d not found, skipping %s write", externalID, field)
			return ErrUserNotFound
		}
		return fmt.Errorf("prefs set %s: %w", field, err)
	}

	current, ok, err := s.store.GetPreference(ctx, externalID, field)
	if err != nil {
		return fmt.Errorf("prefs set %s: %w", field, err)
	}
	if ok && current == value {
		log.Printf("prefs: user %d already has %s=%s", externalID, field, value)
		return nil
	}

	if err := s.store.SetPreference(ctx, externalID, field, value); err != nil {
		return fmt.Errorf("prefs set %s: %w", field, err)
	}
	log.Printf("prefs: user %d %s set to %s", externalID, field, value)
	return nil
}
