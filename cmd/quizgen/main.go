// Command quizgen turns a local SOP PDF into a quiz without starting the server.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"sop-quiz/internal/app"
	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/prompt"
	"sop-quiz/internal/service"
	"sop-quiz/internal/validation"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	input      string
	count      string
	difficulty string
	variant    string
	fresh      bool
	export     string
	out        string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("quizgen", pflag.ContinueOnError)
	fs.StringVarP(&opts.count, "count", "n", prompt.DefaultCount, "number of questions to ask for")
	fs.StringVarP(&opts.difficulty, "difficulty", "d", "", "question difficulty, e.g. easy or hard")
	fs.StringVar(&opts.variant, "variant", "", "standard or labelled")
	fs.BoolVar(&opts.fresh, "fresh", false, "ignore a memoized completion for this document")
	fs.StringVarP(&opts.export, "export", "e", "", "also write the quiz as docx or xlsx")
	fs.StringVarP(&opts.out, "out", "o", "", "export file path (default: quiz-<id>.<format> in the current directory)")

	// Bound to the configuration keys of the same name.
	fs.String("llm.provider", "", "completion backend: openai, azure, ollama or openai-sdk")
	fs.String("llm.model", "", "model or deployment name")
	fs.String("llm.base_url", "", "endpoint of the completion API")
	fs.String("cache.backend", "", "completion cache: memory, redis or none")
	fs.String("logger.level", "", "log level")
	return fs
}

func main() {
	var opts options
	fs := newFlagSet(&opts)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quizgen [flags] <sop.pdf>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	opts.input = fs.Arg(0)

	cfg, err := config.LoadConfigWithFlags(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		logger.Get().Error("Quiz generation failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "quizgen: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) error {
	format, err := exportFormat(opts.export)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}
	if _, err := validation.NewValidator().DetectDocumentType(data); err != nil {
		return err
	}

	pipeline, err := app.NewPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	text, err := pipeline.Extractor.Extract(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	req := service.GenerateRequest{
		Text:  text,
		Fresh: opts.fresh,
		Params: prompt.Params{
			Count:      opts.count,
			Difficulty: firstNonEmpty(opts.difficulty, cfg.Quiz.DefaultDifficulty),
			Variant:    prompt.ParseVariant(firstNonEmpty(opts.variant, cfg.Quiz.Variant)),
		},
	}
	batch, err := pipeline.Generator.Generate(ctx, req)
	if err != nil {
		return err
	}

	if err := writeQuiz(stdout, batch); err != nil {
		return err
	}

	if format == "" {
		return nil
	}
	file, err := pipeline.Exporter.Export(format, batch)
	if err != nil {
		return err
	}
	path := opts.out
	if path == "" {
		path = file.Name
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	abs, _ := filepath.Abs(path)
	_, err = fmt.Fprintf(stdout, "\nWrote %s\n", abs)
	return err
}

// exportFormat returns "" when no export was requested.
func exportFormat(s string) (service.ExportFormat, error) {
	if s == "" {
		return "", nil
	}
	return service.ParseExportFormat(s)
}

func writeQuiz(w io.Writer, batch *domain.QuizBatch) error {
	if _, err := fmt.Fprintf(w, "Quiz %s (%d questions)\n", batch.ID, len(batch.Items)); err != nil {
		return err
	}
	for i, item := range batch.Items {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, item.Question)
		for opt, text := range item.Options {
			marker := " "
			if opt == item.CorrectIndex {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %c) %s\n", marker, 'A'+opt, text)
			if _, err := fmt.Fprintf(w, "       %s\n", item.Reasons[opt]); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
