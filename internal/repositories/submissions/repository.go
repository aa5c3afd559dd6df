// Package submissions provides the interface for answer submission
// history persistence
package submissions

import (
	"context"
	"time"
)

// Submission records one resolved turn: which question was asked,
// what the player chose, and whether it was correct. A nil
// SelectedIndex means the turn timed out or was skipped.
type Submission struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	EncounterID   string    `json:"encounterId"`
	QuestionID    string    `json:"questionId"`
	SelectedIndex *int      `json:"selectedIndex"`
	Correct       bool      `json:"correct"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Repository defines the interface for submission history persistence
type Repository interface {
	// Record appends a submission to the owner's history
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Record(ctx context.Context, input RecordInput) (*RecordOutput, error)

	// ListByOwner retrieves all submissions for an owner, oldest first
	// Returns errors.InvalidArgument for empty owner IDs
	// Returns errors.Internal for storage failures
	ListByOwner(ctx context.Context, input ListByOwnerInput) (*ListByOwnerOutput, error)
}

// RecordInput defines the input for recording a submission
type RecordInput struct {
	Submission *Submission
}

// RecordOutput defines the output for recording a submission
type RecordOutput struct {
	Submission *Submission
}

// ListByOwnerInput defines the input for listing submissions by owner
type ListByOwnerInput struct {
	OwnerID string
}

// ListByOwnerOutput defines the output for listing submissions by owner
type ListByOwnerOutput struct {
	Submissions []*Submission
}
