package contextstore

import (
	"context"
	"fmt"
)

// Namespace partitions cached values per user.
type Namespace string

const (
	NamespaceLanguage    Namespace = "language"
	NamespaceCEFRLevel   Namespace = "cefr_level"
	NamespaceChatHistory Namespace = "chat_history"
)

// Store is a TTL key/value cache for session state. Every Set refreshes the
// entry's expiry horizon; a missing or expired entry is a normal cache miss,
// not an error.
type Store interface {
	Set(ctx context.Context, ns Namespace, externalID int64, value string) error
	Get(ctx context.Context, ns Namespace, externalID int64) (string, bool, error)
	Close() error
}

func key(ns Namespace, externalID int64) string {
	return fmt.Sprintf("%s:%d", ns, externalID)
}
