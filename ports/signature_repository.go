package ports

import (
	"context"

	"godna/domain/core"
	"godna/domain/forecast"
)

// SignatureRepository defines the interface for extracted shock
// signature storage.
type SignatureRepository interface {
	// Save persists a newly extracted signature.
	Save(ctx context.Context, sig *forecast.Signature) error

	// Get retrieves a signature by id.
	Get(ctx context.Context, id core.SignatureID) (*forecast.Signature, error)

	// GetByName retrieves the most recently extracted signature with the
	// given name.
	GetByName(ctx context.Context, name string) (*forecast.Signature, error)

	// List returns all stored signatures, newest first.
	List(ctx context.Context) ([]forecast.Signature, error)

	// Delete removes a signature by id.
	Delete(ctx context.Context, id core.SignatureID) error
}
