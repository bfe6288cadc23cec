package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestExerciseContentValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content ExerciseContent
		wantErr error
	}{
		{
			name: "valid free text",
			content: ExerciseContent{
				Kind:     ExerciseContentFreeText,
				FreeText: &FreeTextContent{ExpectedAnswers: []string{"hola"}},
			},
			wantErr: nil,
		},
		{
			name: "valid choice tiles",
			content: ExerciseContent{
				Kind: ExerciseContentChoiceTiles,
				ChoiceTiles: &ChoiceTilesContent{
					Tiles:         []ChoiceTile{{ID: "a", Label: "hola"}, {ID: "b", Label: "adios"}},
					CorrectTileID: "a",
				},
			},
			wantErr: nil,
		},
		{
			name:    "free text kind without content",
			content: ExerciseContent{Kind: ExerciseContentFreeText},
			wantErr: ErrInvalidExerciseContent,
		},
		{
			name:    "choice tiles kind without content",
			content: ExerciseContent{Kind: ExerciseContentChoiceTiles},
			wantErr: ErrInvalidExerciseContent,
		},
		{
			name: "choice tiles without a correct tile",
			content: ExerciseContent{
				Kind:        ExerciseContentChoiceTiles,
				ChoiceTiles: &ChoiceTilesContent{Tiles: []ChoiceTile{{ID: "a"}}},
			},
			wantErr: ErrInvalidExerciseContent,
		},
		{
			name:    "unknown kind",
			content: ExerciseContent{Kind: "audio"},
			wantErr: ErrInvalidExerciseContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.content.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExerciseValidate(t *testing.T) {
	t.Parallel()

	exercise := Exercise{
		ID:       uuid.New(),
		ItemID:   uuid.New(),
		ItemType: ItemTypeWord,
		Prompt:   "Translate: hello",
		Content: ExerciseContent{
			Kind:     ExerciseContentFreeText,
			FreeText: &FreeTextContent{ExpectedAnswers: []string{"hola"}},
		},
	}

	if err := exercise.Validate(); err != nil {
		t.Fatalf("Expected valid exercise, got %v", err)
	}

	missingID := exercise
	missingID.ID = uuid.Nil
	if err := missingID.Validate(); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}

	missingItem := exercise
	missingItem.ItemID = uuid.Nil
	if err := missingItem.Validate(); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}

	badType := exercise
	badType.ItemType = "idiom"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidItemType) {
		t.Errorf("Expected ErrInvalidItemType, got %v", err)
	}
}
