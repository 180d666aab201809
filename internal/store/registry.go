package store

import (
	"fmt"
	"sync"

	"github.com/dcampos/fieldsync/internal/seedguard"
)

// Backend identifies a physical storage backend.
type Backend string

const (
	// BackendSQLite is the embedded relational backend. Default.
	BackendSQLite Backend = "sqlite"

	// BackendKVFile is the file-backed JSON key-value backend for constrained
	// targets with no SQLite support.
	BackendKVFile Backend = "kvfile"
)

// Constructor creates a LocalStore rooted at the given path. A nil guard
// means the built-in deny-list. Implementations register themselves with
// Register().
type Constructor func(path string, guard *seedguard.Guard) (LocalStore, error)

var (
	registry      = make(map[Backend]Constructor)
	registryMutex sync.RWMutex
)

// Register registers a backend constructor. Called from init() functions in
// the implementation packages (sqlite, kvfile).
//
// Example:
//
//	func init() {
//	    store.Register(store.BackendSQLite, func(path string, g *seedguard.Guard) (store.LocalStore, error) {
//	        return Open(path, g)
//	    })
//	}
func Register(b Backend, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("store: Register constructor is nil for backend %s", b))
	}
	if _, exists := registry[b]; exists {
		panic(fmt.Sprintf("store: Register called twice for backend %s", b))
	}
	registry[b] = constructor
}

// IsRegistered returns true if a constructor is registered for the backend.
func IsRegistered(b Backend) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, exists := registry[b]
	return exists
}

// Open creates a LocalStore for the requested backend rooted at path, with
// guard filtering its reference-data batch saves (nil means the built-in
// deny-list).
//
// This is the single selection point: pipeline code never branches on the
// backend again after Open returns.
func Open(b Backend, path string, guard *seedguard.Guard) (LocalStore, error) {
	registryMutex.RLock()
	constructor := registry[b]
	registryMutex.RUnlock()

	if constructor == nil {
		return nil, fmt.Errorf("store: no backend registered for %q", b)
	}
	return constructor(path, guard)
}
