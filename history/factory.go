package history

import "github.com/pkg/errors"

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// NewStore returns an uninitialised store of the given kind. An empty kind
// selects the memory backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, errors.Errorf("unsupported history backend: %s", kind)
	}
}
