// Package foes provides the interface for foe definition persistence
package foes

import (
	"context"

	"github.com/mathquest/battle-api/internal/entities"
)

// Repository defines the interface for foe definition persistence
type Repository interface {
	// Put stores a foe definition, overwriting any previous version
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Get retrieves a foe by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.NotFound if the foe doesn't exist
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
}

// PutInput defines the input for storing a foe
type PutInput struct {
	Foe *entities.Foe
}

// PutOutput defines the output for storing a foe
type PutOutput struct {
	Foe *entities.Foe
}

// GetInput defines the input for getting a foe
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a foe
type GetOutput struct {
	Foe *entities.Foe
}
