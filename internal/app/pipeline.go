// Package app assembles the quiz pipeline from configuration. It is shared by
// the HTTP server and the command line generator.
package app

import (
	"fmt"

	"sop-quiz/internal/adapter"
	"sop-quiz/internal/adapter/extractor"
	"sop-quiz/internal/adapter/llm"
	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/quizparse"
	"sop-quiz/internal/service"

	"go.uber.org/zap"
)

// Pipeline holds the services a quiz request flows through.
type Pipeline struct {
	Cache     domain.Cache
	Extractor domain.TextExtractor
	Generator service.QuizGenerationService
	Presenter service.PresenterService
	Exporter  service.ExportService

	closeCache func() error
}

// NewPipeline builds the pipeline with the completion backend selected by
// cfg.LLM.Provider.
func NewPipeline(cfg *config.Config, opts ...service.GenerationOption) (*Pipeline, error) {
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	return NewPipelineWithClient(cfg, client, opts...)
}

// NewPipelineWithClient builds the pipeline around an existing completion client.
func NewPipelineWithClient(cfg *config.Config, client domain.CompletionClient, opts ...service.GenerationOption) (*Pipeline, error) {
	l := logger.Get()

	store, closeCache, err := adapter.NewCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	l.Info("Completion cache initialized", zap.String("backend", cfg.Cache.Backend))

	upstreamTimeout := service.WithUpstreamTimeout(cfg.LLM.Timeout)
	quizClient := service.NewMemoizedCompletionClient(client, store, service.CompletionKindQuiz, cfg.LLM.Model, cfg.Cache.TTL, upstreamTimeout)
	opts = append([]service.GenerationOption{service.WithAttemptObserver(logAttempt)}, opts...)
	generator := service.NewQuizGenerationService(quizClient, quizparse.NewParser(cfg.Quiz.StripLabels), cfg.LLM.Generation, opts...)

	var reformatter service.RationaleReformatter
	if cfg.Presenter.ReformatRationale {
		reformatClient := service.NewMemoizedCompletionClient(client, store, service.CompletionKindReformat, cfg.LLM.Model, cfg.Cache.TTL, upstreamTimeout)
		reformatter = service.NewRationaleReformatter(reformatClient, cfg.LLM.Reformat)
		l.Info("Rationale reformatting enabled")
	}

	return &Pipeline{
		Cache:      store,
		Extractor:  extractor.NewPDFExtractor(),
		Generator:  generator,
		Presenter:  service.NewPresenterService(reformatter),
		Exporter:   service.NewExportService(),
		closeCache: closeCache,
	}, nil
}

// Close releases the cache connection.
func (p *Pipeline) Close() error {
	if p.closeCache == nil {
		return nil
	}
	return p.closeCache()
}

func logAttempt(ev service.AttemptEvent) {
	fields := []zap.Field{
		zap.Int("attempt", ev.Attempt),
		zap.Int("max_attempts", service.MaxAttempts),
		zap.Stringer("state", ev.State),
	}
	if ev.Err != nil {
		fields = append(fields, zap.NamedError("previous_error", ev.Err))
	}
	logger.Get().Debug("Quiz generation attempt", fields...)
}
