// Package items provides the interface for item definition persistence
package items

import (
	"context"

	"github.com/mathquest/battle-api/internal/entities"
)

// Repository defines the interface for item definition persistence.
// Definitions are immutable templates shared across all owners; Put
// overwrites, which is how content updates ship.
type Repository interface {
	// Put stores an item definition, overwriting any previous version
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Get retrieves an item definition by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.NotFound if the definition doesn't exist
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// List retrieves all item definitions
	// Returns errors.Internal for storage failures
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// PutInput defines the input for storing an item definition
type PutInput struct {
	Definition *entities.ItemDefinition
}

// PutOutput defines the output for storing an item definition
type PutOutput struct {
	Definition *entities.ItemDefinition
}

// GetInput defines the input for getting an item definition
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting an item definition
type GetOutput struct {
	Definition *entities.ItemDefinition
}

// ListInput defines the input for listing item definitions
type ListInput struct{}

// ListOutput defines the output for listing item definitions
type ListOutput struct {
	Definitions []*entities.ItemDefinition
}
