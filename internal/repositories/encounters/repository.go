// Package encounters provides the interface for encounter definition
// persistence
package encounters

import (
	"context"

	"github.com/mathquest/battle-api/internal/entities"
)

// Repository defines the storage interface for encounter definitions
type Repository interface {
	// Put stores an encounter definition, overwriting any previous
	// version
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Get retrieves an encounter definition by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.NotFound if the encounter doesn't exist
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// List retrieves all encounter definitions (the lobby listing)
	// Returns errors.Internal for storage failures
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// PutInput defines the input for storing an encounter definition
type PutInput struct {
	Encounter *entities.EncounterDefinition
}

// PutOutput defines the output for storing an encounter definition
type PutOutput struct {
	Encounter *entities.EncounterDefinition
}

// GetInput defines the input for getting an encounter definition
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting an encounter definition
type GetOutput struct {
	Encounter *entities.EncounterDefinition
}

// ListInput defines the input for listing encounter definitions
type ListInput struct{}

// ListOutput defines the output for listing encounter definitions
type ListOutput struct {
	Encounters []*entities.EncounterDefinition
}
