package users

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process user store for local/dev use and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64]*Record
	inserts int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[int64]*Record)}
}

func (s *InMemoryStore) FindByExternalID(_ context.Context, externalID int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[externalID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

func (s *InMemoryStore) Insert(_ context.Context, rec NewRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.records[rec.ExternalID] = &Record{
		ExternalID: rec.ExternalID,
		Username:   rec.Username,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.inserts++
	return rec.ExternalID, nil
}

func (s *InMemoryStore) GetPreference(_ context.Context, externalID int64, field PreferenceField) (string, bool, error) {
	if err := validateField(field); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[externalID]
	if !ok {
		return "", false, nil
	}
	v := rec.preference(field)
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *InMemoryStore) SetPreference(_ context.Context, externalID int64, field PreferenceField, value string) error {
	if err := validateField(field); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[externalID]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case FieldLanguage:
		rec.Language = &value
	case FieldCEFRLevel:
		rec.CEFRLevel = &value
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// InsertCount reports how many Insert calls succeeded. Test hook.
func (s *InMemoryStore) InsertCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inserts
}

func (r *Record) preference(field PreferenceField) *string {
	switch field {
	case FieldLanguage:
		return r.Language
	case FieldCEFRLevel:
		return r.CEFRLevel
	default:
		return nil
	}
}
