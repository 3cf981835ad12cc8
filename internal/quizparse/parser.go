// Package quizparse reads the line-oriented quiz format the completion model is
// asked to produce.
//
// Grammar, one quiz item per non-blank line:
//
//	line  := field (" | " field){9}
//	items := question optA optB optC optD index reasonA reasonB reasonC reasonD
//	index := base-10 integer in [1,4], the 1-based position of the correct option
//
// Fields are trimmed. Blank lines are ignored. The first line that breaks a
// rule aborts the whole batch.
package quizparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sop-quiz/internal/domain"
)

const (
	// Delimiter separates the fields of a quiz line.
	Delimiter = " | "
	// FieldCount is the exact number of fields on a quiz line.
	FieldCount = 1 + domain.OptionCount + 1 + domain.OptionCount
)

const (
	questionField = 0
	firstOption   = 1
	indexField    = firstOption + domain.OptionCount
	firstReason   = indexField + 1
)

// Rule names the grammar rule a line violated.
type Rule string

const (
	RuleFieldCount      Rule = "field_count"
	RuleIndexNotInteger Rule = "index_not_integer"
	RuleIndexOutOfRange Rule = "index_out_of_range"
	RuleEmptyBatch      Rule = "empty_batch"
)

// FormatError reports the first line that did not match the grammar.
type FormatError struct {
	Line   int // 1-based line number in the raw input, 0 for batch-level errors
	Text   string
	Rule   Rule
	Detail string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("quiz format: %s: %s", e.Rule, e.Detail)
	}
	return fmt.Sprintf("quiz format: line %d: %s: %s: %q", e.Line, e.Rule, e.Detail, e.Text)
}

// EmptyBatchError is returned by callers that require at least one item.
func EmptyBatchError() *FormatError {
	return &FormatError{Rule: RuleEmptyBatch, Detail: "response contained no quiz lines"}
}

// labelPrefix matches "Question1 - ", "Question 2: ", "question3." and similar.
var labelPrefix = regexp.MustCompile(`(?i)^question\s*\d+\s*[-:.)]\s*`)

// Parser parses raw completions into quiz items.
type Parser struct {
	// StripLabels removes a leading "QuestionN - " style label from the
	// question field. Fields without a label are kept verbatim.
	StripLabels bool
}

// NewParser creates a Parser.
func NewParser(stripLabels bool) *Parser {
	return &Parser{StripLabels: stripLabels}
}

type lineResult struct {
	item  domain.QuizItem
	blank bool
	err   *FormatError
}

// Parse returns one item per non-blank line, in line order. On the first
// malformed line it returns a *FormatError and no items.
func (p *Parser) Parse(raw string) ([]domain.QuizItem, error) {
	lines := strings.Split(raw, "\n")
	items := make([]domain.QuizItem, 0, len(lines))
	for i, line := range lines {
		res := p.parseLine(i+1, line)
		switch {
		case res.blank:
			continue
		case res.err != nil:
			return nil, res.err
		}
		items = append(items, res.item)
	}
	return items, nil
}

func (p *Parser) parseLine(n int, line string) lineResult {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return lineResult{blank: true}
	}

	// Split before trimming so an empty first or last field still counts.
	fields := strings.Split(line, Delimiter)
	if len(fields) != FieldCount {
		return lineResult{err: &FormatError{
			Line:   n,
			Text:   trimmed,
			Rule:   RuleFieldCount,
			Detail: fmt.Sprintf("expected %d fields separated by %q, got %d", FieldCount, Delimiter, len(fields)),
		}}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	oneBased, err := strconv.Atoi(fields[indexField])
	if err != nil {
		return lineResult{err: &FormatError{
			Line:   n,
			Text:   trimmed,
			Rule:   RuleIndexNotInteger,
			Detail: fmt.Sprintf("correct option %q is not an integer", fields[indexField]),
		}}
	}
	if oneBased < 1 || oneBased > domain.OptionCount {
		return lineResult{err: &FormatError{
			Line:   n,
			Text:   trimmed,
			Rule:   RuleIndexOutOfRange,
			Detail: fmt.Sprintf("correct option %d is outside 1..%d", oneBased, domain.OptionCount),
		}}
	}

	item := domain.QuizItem{
		Question:     fields[questionField],
		CorrectIndex: oneBased - 1,
	}
	if p.StripLabels {
		item.Question = stripLabel(item.Question)
	}
	copy(item.Options[:], fields[firstOption:indexField])
	copy(item.Reasons[:], fields[firstReason:])
	return lineResult{item: item}
}

func stripLabel(question string) string {
	loc := labelPrefix.FindStringIndex(question)
	if loc == nil || loc[1] == len(question) {
		return question
	}
	return question[loc[1]:]
}
