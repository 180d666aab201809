package store

import (
	"testing"

	"github.com/dcampos/fieldsync/internal/seedguard"
)

type stubStore struct{ LocalStore }

func TestRegisterAndOpen(t *testing.T) {
	const backend = Backend("stub")

	var gotPath string
	var gotGuard *seedguard.Guard
	Register(backend, func(path string, guard *seedguard.Guard) (LocalStore, error) {
		gotPath = path
		gotGuard = guard
		return &stubStore{}, nil
	})

	if !IsRegistered(backend) {
		t.Fatalf("backend not registered")
	}

	guard := seedguard.New([]string{"acme"})
	s, err := Open(backend, "/tmp/stub", guard)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s == nil || gotPath != "/tmp/stub" {
		t.Errorf("constructor not invoked with path: %q", gotPath)
	}
	if gotGuard != guard {
		t.Errorf("constructor did not receive the caller's guard")
	}
}

func TestOpenNilGuardPassedThrough(t *testing.T) {
	const backend = Backend("stub-nilguard")

	var gotGuard *seedguard.Guard = seedguard.New(nil)
	Register(backend, func(path string, guard *seedguard.Guard) (LocalStore, error) {
		gotGuard = guard
		return &stubStore{}, nil
	})

	if _, err := Open(backend, "/tmp/stub", nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotGuard != nil {
		t.Errorf("nil guard should reach the constructor unchanged")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Backend("nope"), "/tmp/x", nil); err == nil {
		t.Fatalf("unknown backend accepted")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	const backend = Backend("dup")
	ctor := func(path string, guard *seedguard.Guard) (LocalStore, error) { return &stubStore{}, nil }
	Register(backend, ctor)

	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate Register did not panic")
		}
	}()
	Register(backend, ctor)
}

func TestRegisterNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("nil constructor did not panic")
		}
	}()
	Register(Backend("nil"), nil)
}
