package service

import (
	"context"
	"strings"

	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/prompt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// reformatConcurrency limits parallel reformat calls per request.
const reformatConcurrency = 4

// RationaleReformatter rewrites a rationale for display. It never fails; on
// any problem the input is returned unchanged.
type RationaleReformatter interface {
	Reformat(ctx context.Context, rationale string) string
}

type llmReformatter struct {
	client   domain.CompletionClient
	sampling domain.SamplingOptions
}

// NewRationaleReformatter re-bulletizes rationales with a completion call.
func NewRationaleReformatter(client domain.CompletionClient, sampling domain.SamplingOptions) RationaleReformatter {
	return &llmReformatter{client: client, sampling: sampling}
}

func (r *llmReformatter) Reformat(ctx context.Context, rationale string) string {
	if strings.TrimSpace(rationale) == "" {
		return rationale
	}
	out, err := r.client.Complete(ctx, prompt.BuildReformat(rationale), r.sampling)
	if err != nil {
		logger.Get().Warn("Rationale reformat failed, keeping original", zap.Error(err))
		return rationale
	}
	if strings.TrimSpace(out) == "" {
		return rationale
	}
	return strings.TrimSpace(out)
}

// PresenterService prepares quiz items for display.
type PresenterService interface {
	Reveal(item domain.QuizItem, selected int) (domain.Reveal, error)
	Present(ctx context.Context, batch *domain.QuizBatch) ([]domain.PresentedItem, error)
}

type presenterServiceImpl struct {
	reformatter RationaleReformatter
}

// NewPresenterService creates a PresenterService. A nil reformatter shows
// rationales as generated.
func NewPresenterService(reformatter RationaleReformatter) PresenterService {
	return &presenterServiceImpl{reformatter: reformatter}
}

// Reveal returns what is shown when option selected (0-based) is picked.
// A correct pick shows the rationale of the correct option, a wrong pick
// the rationale of the picked option.
func (s *presenterServiceImpl) Reveal(item domain.QuizItem, selected int) (domain.Reveal, error) {
	if selected < 0 || selected >= domain.OptionCount {
		return domain.Reveal{}, domain.NewError(domain.CodeInvalidInput, "selected option is out of range",
			domain.NewOutOfRangeError("selected", selected, 0, domain.OptionCount-1))
	}
	if err := item.Validate(); err != nil {
		return domain.Reveal{}, domain.NewError(domain.CodeInvalidInput, "quiz item is invalid", err)
	}

	reveal := domain.Reveal{
		Selected:     selected,
		CorrectIndex: item.CorrectIndex,
		Correct:      selected == item.CorrectIndex,
	}
	if reveal.Correct {
		reveal.Rationale = item.Reasons[item.CorrectIndex]
	} else {
		reveal.Rationale = item.Reasons[selected]
	}
	return reveal, nil
}

// Present precomputes the reveal of every option of every item, in batch order.
func (s *presenterServiceImpl) Present(ctx context.Context, batch *domain.QuizBatch) ([]domain.PresentedItem, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	presented := make([]domain.PresentedItem, len(batch.Items))
	for i, item := range batch.Items {
		p := domain.PresentedItem{
			Index:    i,
			Question: item.Question,
			Options:  item.Options,
		}
		for opt := 0; opt < domain.OptionCount; opt++ {
			reveal, err := s.Reveal(item, opt)
			if err != nil {
				return nil, err
			}
			p.Reveals[opt] = reveal
		}
		presented[i] = p
	}

	if s.reformatter == nil {
		return presented, nil
	}

	// Every reveal shows one of its item's reasons, so each distinct text is
	// reformatted once and shared by all reveals that show it.
	formatted := make(map[string]string)
	for i := range presented {
		for _, reveal := range presented[i].Reveals {
			formatted[reveal.Rationale] = reveal.Rationale
		}
	}
	distinct := make([]string, 0, len(formatted))
	for text := range formatted {
		distinct = append(distinct, text)
	}
	results := make([]string, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reformatConcurrency)
	for n, text := range distinct {
		n, text := n, text
		g.Go(func() error {
			results[n] = s.reformatter.Reformat(gctx, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for n, text := range distinct {
		formatted[text] = results[n]
	}
	for i := range presented {
		for opt := range presented[i].Reveals {
			presented[i].Reveals[opt].Rationale = formatted[presented[i].Reveals[opt].Rationale]
		}
	}
	return presented, nil
}
