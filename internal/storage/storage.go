// Package storage persists verification history locally.
package storage

import (
	"context"
	"time"
)

// Store is the interface for verification history storage.
type Store interface {
	// SaveVerification records a terminal verification outcome.
	SaveVerification(ctx context.Context, rec *Verification) error

	// ListVerifications returns the most recent records, newest first.
	ListVerifications(ctx context.Context, limit int) ([]*Verification, error)

	// GetVerification returns the latest record for an address.
	GetVerification(ctx context.Context, address string) (*Verification, error)

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// Verification is one recorded verification flow.
type Verification struct {
	ID              string
	ContractName    string
	Address         string
	CompilerVersion string
	Status          string // "succeeded" or "failed"
	ExplorerURL     string
	Reason          string
	Attempts        int
	CreatedAt       time.Time
}
