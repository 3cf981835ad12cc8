package service

import (
	"context"
	"errors"
	"time"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/prompt"
	"sop-quiz/internal/quizparse"
	"sop-quiz/internal/util"

	"go.uber.org/zap"
)

// MaxAttempts bounds the prompt, complete and parse cycle of one request.
const MaxAttempts = 3

// AttemptState is the state of a generation request.
type AttemptState int

const (
	StateAttempting AttemptState = iota
	StateSucceeded
	StateExhausted
)

func (s AttemptState) String() string {
	switch s {
	case StateAttempting:
		return "ATTEMPTING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// AttemptEvent reports a state transition. Err is the format error that
// ended the previous attempt, if any.
type AttemptEvent struct {
	Attempt int
	State   AttemptState
	Err     error
}

// GenerateRequest is one quiz generation request.
type GenerateRequest struct {
	Text   string
	Params prompt.Params
	// Fresh skips any memoized completion of the same prompt.
	Fresh bool
}

// QuizGenerationService runs the retrying generation pipeline.
type QuizGenerationService interface {
	Generate(ctx context.Context, req GenerateRequest) (*domain.QuizBatch, error)
}

// forgetter is implemented by completion clients that memoize.
type forgetter interface {
	Forget(ctx context.Context, prompt domain.Prompt, opts domain.SamplingOptions) error
}

type quizGenerationServiceImpl struct {
	client    domain.CompletionClient
	parser    *quizparse.Parser
	sampling  domain.SamplingOptions
	observers []func(AttemptEvent)
	newID     func() string
	now       func() time.Time
}

// GenerationOption customizes a QuizGenerationService.
type GenerationOption func(*quizGenerationServiceImpl)

// WithAttemptObserver registers fn to receive every state transition.
func WithAttemptObserver(fn func(AttemptEvent)) GenerationOption {
	return func(s *quizGenerationServiceImpl) {
		s.observers = append(s.observers, fn)
	}
}

// NewQuizGenerationService creates a QuizGenerationService.
func NewQuizGenerationService(client domain.CompletionClient, parser *quizparse.Parser, sampling domain.SamplingOptions, opts ...GenerationOption) QuizGenerationService {
	s := &quizGenerationServiceImpl{
		client:   client,
		parser:   parser,
		sampling: sampling,
		newID:    util.NewULID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *quizGenerationServiceImpl) emit(ev AttemptEvent) {
	for _, fn := range s.observers {
		fn(ev)
	}
}

func (s *quizGenerationServiceImpl) forget(ctx context.Context, p domain.Prompt) {
	f, ok := s.client.(forgetter)
	if !ok {
		return
	}
	if err := f.Forget(ctx, p, s.sampling); err != nil {
		logger.Get().Warn("Failed to evict memoized completion", zap.Error(err))
	}
}

// Generate builds the prompt once and tries up to MaxAttempts times to get a
// completion that parses into at least one item. A failed remote call ends
// the request at once with LLM_SERVICE_ERROR. When every attempt produced a
// format error the result is EXHAUSTED_RETRIES wrapping the last one.
func (s *quizGenerationServiceImpl) Generate(ctx context.Context, req GenerateRequest) (*domain.QuizBatch, error) {
	l := logger.Get()
	p := prompt.Build(req.Text, req.Params)
	if req.Fresh {
		s.forget(ctx, p)
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.emit(AttemptEvent{Attempt: attempt, State: StateAttempting, Err: lastErr})

		start := time.Now()
		raw, err := s.client.Complete(ctx, p, s.sampling)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			l.Error("Completion call failed", zap.Int("attempt", attempt), zap.Error(err))
			return nil, domain.NewLLMServiceError(err)
		}

		items, err := s.parser.Parse(raw)
		if err == nil && len(items) == 0 {
			err = quizparse.EmptyBatchError()
		}
		if err == nil {
			batch := &domain.QuizBatch{
				ID:          s.newID(),
				Items:       items,
				Raw:         raw,
				GeneratedAt: s.now(),
			}
			l.Info("Quiz generated",
				zap.String("batch_id", batch.ID),
				zap.Int("attempt", attempt),
				zap.Int("items", len(items)),
				zap.Duration("elapsed", time.Since(start)))
			s.emit(AttemptEvent{Attempt: attempt, State: StateSucceeded})
			return batch, nil
		}

		var formatErr *quizparse.FormatError
		if !errors.As(err, &formatErr) {
			return nil, domain.NewInternalError("unexpected parser failure", err)
		}
		l.Warn("Completion did not follow the quiz template",
			zap.Int("attempt", attempt),
			zap.Int("line", formatErr.Line),
			zap.String("rule", string(formatErr.Rule)),
			zap.String("detail", formatErr.Detail))
		lastErr = err
		s.forget(ctx, p)
	}

	s.emit(AttemptEvent{Attempt: MaxAttempts, State: StateExhausted, Err: lastErr})
	return nil, domain.NewExhaustedRetriesError(MaxAttempts, domain.NewFormatError(lastErr))
}
