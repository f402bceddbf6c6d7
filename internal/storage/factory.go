package storage

import (
	"errors"
	"fmt"
)

// Store backend kinds accepted by NewStore.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// ErrUnsupportedBackend is returned for a backend kind NewStore does not know.
var ErrUnsupportedBackend = errors.New("unsupported store backend")

// Kinds lists the backend kinds NewStore accepts, whether or not this build
// can open them.
func Kinds() []string {
	return []string{KindMemory, KindSQLite}
}

// NewStore opens the backend of the given kind. An empty kind selects the
// memory store; sqlitePath is only read by the sqlite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		log.Debugf("Opening %s store", KindMemory)
		return NewMemoryStore(), nil
	case KindSQLite:
		log.Debugf("Opening %s store at %s", KindSQLite, sqlitePath)
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, kind)
	}
}

// CloseIfSupported closes stores that hold resources and ignores the rest.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
