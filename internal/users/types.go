package users

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that no record exists for the requested external ID.
var ErrNotFound = errors.New("user not found")

// PreferenceField names one of the two independently reconciled preferences.
type PreferenceField string

const (
	FieldLanguage  PreferenceField = "language"
	FieldCEFRLevel PreferenceField = "cefr_level"
)

// Valid reports whether the field is one of the known preference columns.
func (f PreferenceField) Valid() bool {
	return f == FieldLanguage || f == FieldCEFRLevel
}

// Record is one durable user row. The external ID is assigned by the chat
// platform, unique and immutable once stored. Preferences are nil until the
// user picks them.
type Record struct {
	ExternalID int64
	Username   *string
	FirstName  *string
	LastName   *string
	Language   *string
	CEFRLevel  *string
	IsAdmin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRecord carries the profile fields accepted at registration time.
type NewRecord struct {
	ExternalID int64
	Username   *string
	FirstName  *string
	LastName   *string
}

// Store persists user identity and preferences.
type Store interface {
	// FindByExternalID returns ErrNotFound when no record exists.
	FindByExternalID(ctx context.Context, externalID int64) (Record, error)
	// Insert stores a new record with null preferences and returns its external ID.
	Insert(ctx context.Context, rec NewRecord) (int64, error)
	// GetPreference returns the durable value for one field; ok is false when
	// the field is unset or the user does not exist.
	GetPreference(ctx context.Context, externalID int64, field PreferenceField) (string, bool, error)
	// SetPreference writes one field for an existing user.
	SetPreference(ctx context.Context, externalID int64, field PreferenceField, value string) error
	Close() error
}

func validateField(field PreferenceField) error {
	if !field.Valid() {
		return fmt.Errorf("unknown preference field %q", field)
	}
	return nil
}
