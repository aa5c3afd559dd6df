// Package questions provides the interface for question persistence
package questions

import (
	"context"

	"github.com/mathquest/battle-api/internal/entities"
)

// Repository defines the interface for question persistence, queryable
// by tag membership
type Repository interface {
	// Put stores a question, overwriting any previous version, and
	// maintains the tag indexes
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Get retrieves a question by ID
	// Returns errors.InvalidArgument for empty IDs
	// Returns errors.NotFound if the question doesn't exist
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// ListByAnyTag retrieves every question carrying at least one of
	// the given tags. Order is unspecified; callers sequence the pool.
	// Returns errors.InvalidArgument for an empty tag list
	// Returns errors.Internal for storage failures
	ListByAnyTag(ctx context.Context, input ListByAnyTagInput) (*ListByAnyTagOutput, error)
}

// PutInput defines the input for storing a question
type PutInput struct {
	Question *entities.Question
}

// PutOutput defines the output for storing a question
type PutOutput struct {
	Question *entities.Question
}

// GetInput defines the input for getting a question
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a question
type GetOutput struct {
	Question *entities.Question
}

// ListByAnyTagInput defines the input for listing questions by tags
type ListByAnyTagInput struct {
	Tags []string
}

// ListByAnyTagOutput defines the output for listing questions by tags
type ListByAnyTagOutput struct {
	Questions []*entities.Question
}
