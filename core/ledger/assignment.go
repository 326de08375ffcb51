package ledger

import (
	"github.com/pkg/errors"
)

type (
	// Assignment is a teacher-owned definition referencing words previously distributed to a roster.
	Assignment struct {
		ID            string             `json:"id" validate:"required"`
		Type          Module             `json:"type" validate:"required,assignmenttype"`
		Title         string             `json:"title,omitempty"`
		Description   string             `json:"description,omitempty"`
		TargetClass   string             `json:"targetClass" validate:"required"`
		TargetSection string             `json:"targetSection" validate:"required"`
		DueDate       string             `json:"dueDate,omitempty"`
		CreatedAt     string             `json:"createdAt,omitempty"`
		Metadata      AssignmentMetadata `json:"metadata"`
	}

	AssignmentMetadata struct {
		ScrambleWords   []ItemRef `json:"scrambleWords,omitempty" validate:"dive"`
		SearchWords     []ItemRef `json:"searchWords,omitempty" validate:"dive"`
		VocabularyWords []ItemRef `json:"vocabularyWords,omitempty" validate:"dive"`
	}

	// ItemRef references a distributed word by (word, difficulty).
	ItemRef struct {
		Word       string     `json:"word" validate:"required"`
		Difficulty Difficulty `json:"difficulty" validate:"required,difficulty"`
		Definition string     `json:"definition,omitempty"`
		Hint       string     `json:"hint,omitempty"`
	}
)

// Items returns the item references matching the assignment type.
func (a Assignment) Items() ([]ItemRef, error) {
	switch a.Type {
	case ModuleScramble:
		return a.Metadata.ScrambleWords, nil
	case ModuleSearch:
		return a.Metadata.SearchWords, nil
	case ModuleVocabulary:
		return a.Metadata.VocabularyWords, nil
	}
	return nil, invalid("type", errors.Errorf("unknown assignment type %q", a.Type))
}

// Words returns the referenced words in declaration order.
func (a Assignment) Words() []string {
	items, _ := a.Items()
	words := make([]string, 0, len(items))
	for _, it := range items {
		words = append(words, it.Word)
	}
	return words
}

// CheckItems fails when the assignment type or any referenced difficulty is unknown.
func (a Assignment) CheckItems() error {
	items, err := a.Items()
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := LevelFor(it.Difficulty); err != nil {
			return err
		}
	}
	return nil
}
