package prompt

import (
	"fmt"
	"strings"

	"sop-quiz/internal/domain"
)

// Variant selects the flavour of the quiz instruction.
type Variant string

const (
	VariantStandard Variant = "standard"
	// VariantLabelled asks for a "QuestionN - " label in front of every
	// question; the parser strips it again.
	VariantLabelled Variant = "labelled"
)

// DefaultCount is used when no question count was supplied.
const DefaultCount = "10"

// WorkedExample is the template line shown to the model. Its index field is 3,
// which selects the third option ("Blue") once converted to 0-based. Parsing
// follows the index; the option text is irrelevant to the arithmetic.
const WorkedExample = "What is the colour of healthy grass | Red | Yellow | Blue | Green | 3 | " +
	"Red grass indicates disease or frost damage | " +
	"Yellow grass usually lacks water or nitrogen | " +
	"Blue is the option marked correct by the index in this example | " +
	"Green is the colour of healthy, well-watered grass"

// Params are the user-supplied knobs of a quiz request. None of them are
// validated; they are interpolated into the instruction as given.
type Params struct {
	Count      string
	Difficulty string
	Variant    Variant
}

// ParseVariant maps a form value onto a Variant, defaulting to standard.
func ParseVariant(s string) Variant {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantLabelled:
		return VariantLabelled
	default:
		return VariantStandard
	}
}

const quizInstruction = `You are an expert quiz maker who writes thoughtful and unique multiple-choice questions about standard operating procedures. You never ask the same kind of question twice.
Read the document supplied by the user and generate %s questions from its full content.%s
Every question has exactly 4 answer options, the number (1 to 4) of the correct option, and a short reason for each option explaining why it is right or wrong.

Write one question per line using exactly this template, with " | " between fields:
%s

Example:
%s

Rules:
- Output only template lines, one per question. No headings, numbering, markdown, blank commentary or filler words.
- Never use the "|" character inside a field.
- The correct option number is a single digit from 1 to 4.
- STRICTLY follow the template. Do not give any information other than the template lines.`

const (
	standardTemplate = "Question | Option 1 | Option 2 | Option 3 | Option 4 | Correct option number | Reason for option 1 | Reason for option 2 | Reason for option 3 | Reason for option 4"
	labelledTemplate = "QuestionN - Question | Option 1 | Option 2 | Option 3 | Option 4 | Correct option number | Reason for option 1 | Reason for option 2 | Reason for option 3 | Reason for option 4"
)

const userPrefix = "Generate questions using the full content of my SOP book:\n"

// Build returns the quiz-generation prompt for sourceText. The source text is
// embedded verbatim with no truncation.
func Build(sourceText string, p Params) domain.Prompt {
	count := p.Count
	if count == "" {
		count = DefaultCount
	}

	difficulty := ""
	if p.Difficulty != "" {
		difficulty = fmt.Sprintf("\nThe questions should be of %s difficulty.", p.Difficulty)
	}

	template, example := standardTemplate, WorkedExample
	if p.Variant == VariantLabelled {
		template, example = labelledTemplate, "Question1 - "+WorkedExample
	}

	return domain.Prompt{
		System: fmt.Sprintf(quizInstruction, count, difficulty, template, example),
		User:   userPrefix + sourceText,
	}
}

const reformatInstruction = `Rewrite the explanation supplied by the user as a short bulleted list using "- " bullets.
Keep its meaning exactly. Do not add facts, do not say which option is correct, and output only the bullets.`

// BuildReformat returns the prompt that re-bulletizes a rationale for display.
func BuildReformat(rationale string) domain.Prompt {
	return domain.Prompt{
		System: reformatInstruction,
		User:   rationale,
	}
}
