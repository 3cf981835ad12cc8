package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sop-quiz/internal/cache"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Completion kinds, used as the object type of cache keys.
const (
	CompletionKindQuiz     = "quiz"
	CompletionKindReformat = "reformat"
)

// MemoizedCompletionClient caches completions of another client by prompt.
// Concurrent identical requests share a single upstream call.
type MemoizedCompletionClient struct {
	next    domain.CompletionClient
	cache   domain.Cache
	kind    string
	model   string
	ttl     time.Duration
	timeout time.Duration
	sfGroup singleflight.Group
}

// MemoizeOption configures a MemoizedCompletionClient.
type MemoizeOption func(*MemoizedCompletionClient)

// WithUpstreamTimeout bounds a shared upstream call, which outlives the
// cancellation of the request that started it.
func WithUpstreamTimeout(d time.Duration) MemoizeOption {
	return func(m *MemoizedCompletionClient) { m.timeout = d }
}

// NewMemoizedCompletionClient wraps next. A ttl of 0 keeps entries until the
// cache evicts them.
func NewMemoizedCompletionClient(next domain.CompletionClient, cache domain.Cache, kind, model string, ttl time.Duration, opts ...MemoizeOption) *MemoizedCompletionClient {
	m := &MemoizedCompletionClient{
		next:  next,
		cache: cache,
		kind:  kind,
		model: model,
		ttl:   ttl,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key returns the cache key of a prompt and its sampling options.
func (m *MemoizedCompletionClient) Key(prompt domain.Prompt, opts domain.SamplingOptions) string {
	sampling := fmt.Sprintf("%g|%g|%g|%g|%d",
		opts.Temperature, opts.TopP, opts.FrequencyPenalty, opts.PresencePenalty, opts.MaxTokens)
	return cache.GenerateCacheKey("completion", m.kind, util.HashString(m.model, sampling, prompt.System, prompt.User))
}

// Complete implements domain.CompletionClient. Empty completions are not cached.
func (m *MemoizedCompletionClient) Complete(ctx context.Context, prompt domain.Prompt, opts domain.SamplingOptions) (string, error) {
	key := m.Key(prompt, opts)
	l := logger.Get()

	cached, err := m.cache.Get(ctx, key)
	switch {
	case err == nil:
		l.Debug("Completion cache hit", zap.String("kind", m.kind), zap.String("key", key))
		return cached, nil
	case !errors.Is(err, domain.ErrCacheMiss):
		l.Warn("Completion cache read failed, calling upstream", zap.String("key", key), zap.Error(err))
	}

	// The shared call runs detached from ctx so one caller giving up does
	// not fail the others waiting on it.
	ch := m.sfGroup.DoChan(key, func() (interface{}, error) {
		callCtx := context.WithoutCancel(ctx)
		if m.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, m.timeout)
			defer cancel()
		}
		text, err := m.next.Complete(callCtx, prompt, opts)
		if err != nil {
			return "", err
		}
		if text != "" {
			if errSet := m.cache.Set(callCtx, key, text, m.ttl); errSet != nil {
				l.Warn("Failed to cache completion", zap.String("key", key), zap.Error(errSet))
			}
		}
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			l.Debug("Completion shared with a concurrent request", zap.String("kind", m.kind))
		}
		return res.Val.(string), nil
	}
}

// Forget evicts the cached completion of prompt so the next call reaches
// the upstream client.
func (m *MemoizedCompletionClient) Forget(ctx context.Context, prompt domain.Prompt, opts domain.SamplingOptions) error {
	key := m.Key(prompt, opts)
	m.sfGroup.Forget(key)
	return m.cache.Delete(ctx, key)
}

var _ domain.CompletionClient = (*MemoizedCompletionClient)(nil)
