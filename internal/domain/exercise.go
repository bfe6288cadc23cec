package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ExerciseContentKind tags the shape of an exercise's content.
type ExerciseContentKind string

// Possible exercise content kinds
const (
	// ExerciseContentFreeText is a free-response exercise graded against
	// one or more expected answers.
	ExerciseContentFreeText ExerciseContentKind = "free_text"

	// ExerciseContentChoiceTiles is a multiple-choice exercise built from
	// structured tiles.
	ExerciseContentChoiceTiles ExerciseContentKind = "choice_tiles"
)

// FreeTextContent holds the grading targets for a free-response exercise.
// ExpectedAnswers lists every accepted surface form; TranslationTarget is
// the canonical target text handed to the semantic grader. An exercise
// with neither cannot be graded and resolves as unscored.
type FreeTextContent struct {
	ExpectedAnswers   []string `json:"expected_answers"`
	TranslationTarget string   `json:"translation_target,omitempty"`
}

// ChoiceTile is one selectable option in a tile exercise.
type ChoiceTile struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChoiceTilesContent holds the options for a multiple-choice exercise.
type ChoiceTilesContent struct {
	Tiles         []ChoiceTile `json:"tiles"`
	CorrectTileID string       `json:"correct_tile_id"`
}

// ExerciseContent is a tagged variant over the shapes an exercise can
// take. Exactly one of the arms matching Kind is populated; consumers
// switch on Kind and handle each shape exhaustively.
type ExerciseContent struct {
	Kind        ExerciseContentKind `json:"kind"`
	FreeText    *FreeTextContent    `json:"free_text,omitempty"`
	ChoiceTiles *ChoiceTilesContent `json:"choice_tiles,omitempty"`
}

// Validate checks that the populated arm matches the declared kind.
func (c *ExerciseContent) Validate() error {
	switch c.Kind {
	case ExerciseContentFreeText:
		if c.FreeText == nil {
			return fmt.Errorf("%w: free_text content missing", ErrInvalidExerciseContent)
		}
	case ExerciseContentChoiceTiles:
		if c.ChoiceTiles == nil {
			return fmt.Errorf("%w: choice_tiles content missing", ErrInvalidExerciseContent)
		}
		if c.ChoiceTiles.CorrectTileID == "" {
			return fmt.Errorf("%w: choice_tiles missing correct tile", ErrInvalidExerciseContent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidExerciseContent, c.Kind)
	}
	return nil
}

// Exercise is a single graded prompt inside a lesson. The engine treats
// the prompt text as opaque presentation data; grading works off Content.
type Exercise struct {
	ID       uuid.UUID       `json:"id"`
	ItemID   uuid.UUID       `json:"item_id"` // Reviewable unit this exercise drills
	ItemType ItemType        `json:"item_type"`
	Prompt   string          `json:"prompt"`
	Content  ExerciseContent `json:"content"`
}

// Validate checks if the Exercise has valid data.
func (e *Exercise) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("%w: exercise ID cannot be empty", ErrInvalidID)
	}

	if e.ItemID == uuid.Nil {
		return fmt.Errorf("%w: exercise item ID cannot be empty", ErrInvalidID)
	}

	switch e.ItemType {
	case ItemTypeWord, ItemTypeSentence:
	default:
		return ErrInvalidItemType
	}

	return e.Content.Validate()
}
