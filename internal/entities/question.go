package entities

import "github.com/mathquest/battle-api/internal/errors"

// DefaultTimeLimitSeconds is the per-question time limit applied when
// content does not declare one
const DefaultTimeLimitSeconds = 20

// PromptType tags which prompt field is authoritative for a question
type PromptType string

// Prompt types
const (
	PromptTypeText  PromptType = "text"
	PromptTypeLatex PromptType = "latex"
	PromptTypeImage PromptType = "image"
)

// Question is one quiz item with multiple-choice answers
type Question struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	PromptType     PromptType `json:"promptType" yaml:"promptType"`
	PromptText     string     `json:"promptText,omitempty" yaml:"promptText,omitempty"`
	PromptLatex    string     `json:"promptLatex,omitempty" yaml:"promptLatex,omitempty"`
	PromptImageURL string     `json:"promptImageUrl,omitempty" yaml:"promptImageUrl,omitempty"`

	Choices      []string `json:"choices" yaml:"choices"`
	ChoiceType   string   `json:"choiceType,omitempty" yaml:"choiceType,omitempty"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`

	Difficulty int      `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Tags       []string `json:"tags" yaml:"tags"`

	// Order, when present on every question of a pool, fixes the
	// question sequence instead of shuffling
	Order *int `json:"order,omitempty" yaml:"order,omitempty"`

	TimeLimitSeconds int `json:"timeLimitSeconds" yaml:"timeLimitSeconds"`
}

// Normalize applies defaults and validates the question at ingestion
func (q *Question) Normalize() error {
	vb := errors.NewValidationBuilder()

	if q.ID == "" {
		vb.RequiredField("id")
	}
	if len(q.Choices) == 0 {
		vb.RequiredField("choices")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		vb.Fieldf("correctIndex", "must be in [0, %d)", len(q.Choices))
	}
	if len(q.Tags) == 0 {
		vb.RequiredField("tags")
	}
	if q.TimeLimitSeconds < 0 {
		vb.InvalidField("timeLimitSeconds", "must not be negative")
	}
	if q.TimeLimitSeconds == 0 {
		q.TimeLimitSeconds = DefaultTimeLimitSeconds
	}

	if q.PromptType == "" {
		switch {
		case q.PromptText != "":
			q.PromptType = PromptTypeText
		case q.PromptLatex != "":
			q.PromptType = PromptTypeLatex
		case q.PromptImageURL != "":
			q.PromptType = PromptTypeImage
		default:
			vb.RequiredField("promptType")
		}
	}

	switch q.PromptType {
	case PromptTypeText:
		if q.PromptText == "" {
			vb.RequiredField("promptText")
		}
	case PromptTypeLatex:
		if q.PromptLatex == "" {
			vb.RequiredField("promptLatex")
		}
	case PromptTypeImage:
		if q.PromptImageURL == "" {
			vb.RequiredField("promptImageUrl")
		}
	case "":
		// already reported above
	default:
		vb.Fieldf("promptType", "unknown prompt type %q", q.PromptType)
	}

	return vb.Build()
}

// Prompt returns the authoritative prompt content per the prompt type
func (q *Question) Prompt() string {
	switch q.PromptType {
	case PromptTypeLatex:
		return q.PromptLatex
	case PromptTypeImage:
		return q.PromptImageURL
	default:
		return q.PromptText
	}
}

// HasTag reports whether the question carries the given tag
func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
