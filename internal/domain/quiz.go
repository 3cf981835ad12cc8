package domain

import (
	"fmt"
	"time"
)

// OptionCount is the number of answer options every quiz item carries.
const OptionCount = 4

// QuizItem is one multiple-choice question parsed from a model completion.
// Options and Reasons are aligned by position; CorrectIndex is 0-based.
type QuizItem struct {
	Question     string
	Options      [OptionCount]string
	CorrectIndex int
	Reasons      [OptionCount]string
}

// Validate checks that CorrectIndex addresses one of the options.
func (q QuizItem) Validate() error {
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return NewOutOfRangeError("correct_index", q.CorrectIndex, 0, OptionCount-1)
	}
	return nil
}

// CorrectOption returns the text of the correct option.
func (q QuizItem) CorrectOption() string {
	if q.Validate() != nil {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuizBatch is the ordered result of one successful generation.
type QuizBatch struct {
	ID          string
	Items       []QuizItem
	Raw         string // completion text the items were parsed from
	GeneratedAt time.Time
}

// Validate checks every item in the batch.
func (b *QuizBatch) Validate() error {
	if b == nil || len(b.Items) == 0 {
		return NewInvalidInputError("quiz batch has no items")
	}
	for i, item := range b.Items {
		if err := item.Validate(); err != nil {
			return NewError(CodeOutOfRange, fmt.Sprintf("quiz item %d is invalid", i), err)
		}
	}
	return nil
}

// Reveal is what the presenter shows once an option has been selected.
type Reveal struct {
	Selected     int
	CorrectIndex int
	Correct      bool
	Rationale    string
}

// PresentedItem is a quiz item prepared for rendering, with the reveal for
// each of its options precomputed.
type PresentedItem struct {
	Index    int
	Question string
	Options  [OptionCount]string
	Reveals  [OptionCount]Reveal
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}
