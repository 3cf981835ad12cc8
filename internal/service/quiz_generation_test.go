package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"sop-quiz/internal/adapter"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/prompt"
	"sop-quiz/internal/quizparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goodCompletion = "What must be worn in the clean room? | Gown | Jeans | Sandals | Cap | 1 | Gowns are required | Street clothes shed fibres | Open shoes are forbidden | A cap alone is not enough\n" +
		"\n" +
		"Who signs the batch record? | Operator | QA | Visitor | Nobody | 2 | Operators record steps | QA approves the record | Visitors never sign | Records must be signed"
	badCompletion = "Sure! Here is your quiz:\nQuestion 1 | A | B"
)

func newTestGeneration(client domain.CompletionClient, events *[]AttemptEvent) *quizGenerationServiceImpl {
	opts := []GenerationOption{}
	if events != nil {
		opts = append(opts, WithAttemptObserver(func(ev AttemptEvent) { *events = append(*events, ev) }))
	}
	s := NewQuizGenerationService(client, quizparse.NewParser(true), testSampling, opts...).(*quizGenerationServiceImpl)
	s.newID = func() string { return "01TESTBATCH" }
	s.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestGenerate_FirstAttemptSucceeds(t *testing.T) {
	client := &scriptedClient{responses: []string{goodCompletion}}
	var events []AttemptEvent
	s := newTestGeneration(client, &events)

	batch, err := s.Generate(context.Background(), GenerateRequest{
		Text:   "SOP-001 Gowning procedure",
		Params: prompt.Params{Count: "2", Difficulty: "easy"},
	})
	require.NoError(t, err)

	assert.Equal(t, "01TESTBATCH", batch.ID)
	assert.Equal(t, goodCompletion, batch.Raw)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, 0, batch.Items[0].CorrectIndex)
	assert.Equal(t, 1, batch.Items[1].CorrectIndex)
	assert.Equal(t, "QA", batch.Items[1].CorrectOption())

	require.Equal(t, 1, client.calls())
	assert.Equal(t, testSampling, client.opts[0])
	assert.Contains(t, client.prompts[0].User, "SOP-001 Gowning procedure")
	assert.Contains(t, client.prompts[0].System, "generate 2 questions")

	require.Len(t, events, 2)
	assert.Equal(t, StateAttempting, events[0].State)
	assert.Equal(t, StateSucceeded, events[1].State)
}

func TestGenerate_AttemptBudget(t *testing.T) {
	for k := 0; k <= 4; k++ {
		t.Run(fmt.Sprintf("%d format errors first", k), func(t *testing.T) {
			responses := make([]string, 0, k+1)
			for i := 0; i < k; i++ {
				responses = append(responses, badCompletion)
			}
			responses = append(responses, goodCompletion)
			client := &scriptedClient{responses: responses}
			var events []AttemptEvent

			batch, err := newTestGeneration(client, &events).Generate(context.Background(), GenerateRequest{Text: "sop"})

			assert.Equal(t, min(k+1, MaxAttempts), client.calls())
			last := events[len(events)-1]
			if k < MaxAttempts {
				require.NoError(t, err)
				assert.Len(t, batch.Items, 2)
				assert.Equal(t, StateSucceeded, last.State)
				return
			}

			assert.Nil(t, batch, "no partial quiz")
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, domain.CodeExhaustedRetries))
			assert.Equal(t, StateExhausted, last.State)

			var fe *quizparse.FormatError
			require.True(t, errors.As(err, &fe), "the last format error is kept")
			assert.Equal(t, quizparse.RuleFieldCount, fe.Rule)
			assert.Equal(t, 1, fe.Line)
		})
	}
}

func TestGenerate_AttemptEventsCarryPreviousError(t *testing.T) {
	client := &scriptedClient{responses: []string{badCompletion, goodCompletion}}
	var events []AttemptEvent
	_, err := newTestGeneration(client, &events).Generate(context.Background(), GenerateRequest{Text: "sop"})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, AttemptEvent{Attempt: 1, State: StateAttempting}, events[0])
	assert.Equal(t, 2, events[1].Attempt)
	assert.Equal(t, StateAttempting, events[1].State)
	assert.Error(t, events[1].Err)
	assert.Equal(t, StateSucceeded, events[2].State)
}

func TestGenerate_EmptyCompletionIsRetried(t *testing.T) {
	client := &scriptedClient{responses: []string{"", "\n\n", ""}}
	_, err := newTestGeneration(client, nil).Generate(context.Background(), GenerateRequest{Text: "sop"})

	assert.Equal(t, MaxAttempts, client.calls())
	assert.True(t, domain.HasCode(err, domain.CodeExhaustedRetries))
	var fe *quizparse.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, quizparse.RuleEmptyBatch, fe.Rule)
}

func TestGenerate_RemoteFailureSurfacesImmediately(t *testing.T) {
	boom := errors.New("401 unauthorized")
	client := &scriptedClient{errs: []error{boom}}
	var events []AttemptEvent

	batch, err := newTestGeneration(client, &events).Generate(context.Background(), GenerateRequest{Text: "sop"})
	assert.Nil(t, batch)
	assert.True(t, domain.HasCode(err, domain.CodeLLMServiceError))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, client.calls(), "remote failures do not consume the retry budget")
	assert.Len(t, events, 1)
}

func TestGenerate_EmptyDocumentStillSendsPrompt(t *testing.T) {
	client := &scriptedClient{responses: []string{goodCompletion}}
	_, err := newTestGeneration(client, nil).Generate(context.Background(), GenerateRequest{Text: ""})
	require.NoError(t, err)

	require.Equal(t, 1, client.calls())
	assert.NotEmpty(t, client.prompts[0].System)
	assert.Contains(t, client.prompts[0].System, prompt.WorkedExample)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &scriptedClient{responses: []string{goodCompletion}}

	_, err := newTestGeneration(client, nil).Generate(ctx, GenerateRequest{Text: "sop"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.calls())
}

func TestGenerate_MemoizedBadCompletionIsEvicted(t *testing.T) {
	upstream := &scriptedClient{responses: []string{badCompletion, goodCompletion}}
	memo := NewMemoizedCompletionClient(upstream, adapter.NewMemoryCacheAdapter(8, 0), CompletionKindQuiz, "m", 0)

	batch, err := newTestGeneration(memo, nil).Generate(context.Background(), GenerateRequest{Text: "sop"})
	require.NoError(t, err)
	assert.Len(t, batch.Items, 2)
	assert.Equal(t, 2, upstream.calls(), "the retry reached the upstream client")
}

func TestGenerate_FreshBypassesMemoizedQuiz(t *testing.T) {
	second := strings.Replace(goodCompletion, "| 1 |", "| 4 |", 1)
	upstream := &scriptedClient{responses: []string{goodCompletion, second}}
	memo := NewMemoizedCompletionClient(upstream, adapter.NewMemoryCacheAdapter(8, 0), CompletionKindQuiz, "m", 0)
	s := newTestGeneration(memo, nil)
	req := GenerateRequest{Text: "same sop"}

	first, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	again, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Raw, again.Raw)
	assert.Equal(t, 1, upstream.calls(), "identical input is served from the cache")

	req.Fresh = true
	regenerated, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls())
	assert.Equal(t, 3, regenerated.Items[0].CorrectIndex)
}

func TestAttemptState_String(t *testing.T) {
	assert.Equal(t, "ATTEMPTING", StateAttempting.String())
	assert.Equal(t, "SUCCEEDED", StateSucceeded.String())
	assert.Equal(t, "EXHAUSTED", StateExhausted.String())
	assert.Equal(t, "UNKNOWN", AttemptState(9).String())
}
