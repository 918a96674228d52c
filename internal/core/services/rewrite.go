package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
	"github.com/custodia-labs/narrator-cli/internal/postprocessors/chunker"
)

// Ensure RewriteService implements the interface.
var _ driving.RewriteService = (*RewriteService)(nil)

// chunkSeparator joins rewritten chunks into the final narration text.
const chunkSeparator = "\n\n"

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RewriteService rewrites documents for narration while respecting
// provider quotas. A nil remote rewriter means the service is not
// configured and every chunk goes through the fallback.
type RewriteService struct {
	remote   driven.RemoteRewriter
	fallback driven.FallbackRewriter
	chunker  driven.Chunker
	cache    driven.RewriteCache
	observer driven.RewriteObserver
	sleep    Sleeper
	now      func() time.Time
}

// RewriteOption configures a RewriteService.
type RewriteOption func(*RewriteService)

// WithCache reuses remote rewrites of identical chunks.
func WithCache(c driven.RewriteCache) RewriteOption {
	return func(s *RewriteService) {
		s.cache = c
	}
}

// WithSleeper replaces the context-aware sleep used for every wait.
func WithSleeper(fn Sleeper) RewriteOption {
	return func(s *RewriteService) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) RewriteOption {
	return func(s *RewriteService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithObserver reports rewrite events, typically to metrics.
func WithObserver(o driven.RewriteObserver) RewriteOption {
	return func(s *RewriteService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithChunker replaces the default paragraph chunker.
func WithChunker(c driven.Chunker) RewriteOption {
	return func(s *RewriteService) {
		if c != nil {
			s.chunker = c
		}
	}
}

// NewRewriteService creates a rewrite service. remote may be nil.
func NewRewriteService(
	remote driven.RemoteRewriter,
	fallback driven.FallbackRewriter,
	opts ...RewriteOption,
) *RewriteService {
	s := &RewriteService{
		remote:   remote,
		fallback: fallback,
		chunker:  chunker.New(),
		observer: noopObserver{},
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RewriteLocal rewrites text with the fallback only.
func (s *RewriteService) RewriteLocal(text string, chunkMaxChars int) *domain.RewriteResult {
	result := s.newResult()
	for i, c := range s.chunker.Split(text, chunkMaxChars) {
		result.Chunks = append(result.Chunks, s.fallbackOutcome(i, c))
	}
	s.finish(result)
	return result
}

// RewriteDocument chunks text and rewrites every chunk.
//
// Chunks are served from the cache when possible, otherwise sent to the
// remote rewriter behind a per-minute rate gate and a minimum spacing
// between calls. Transient and extraction failures are retried with
// backoff. A quota failure, or a chunk that fails every attempt, switches
// the rest of the document to the local fallback; with fallback disabled
// the original text is returned with a *domain.RewriteError.
func (s *RewriteService) RewriteDocument(
	ctx context.Context,
	text string,
	cfg domain.RewriteConfig,
) (*domain.RewriteResult, error) {
	if err := cfg.Validate(); err != nil {
		return &domain.RewriteResult{Text: text}, err
	}

	chunks := s.chunker.Split(text, cfg.ChunkMaxChars)
	result := s.newResult()
	if len(chunks) == 0 {
		s.finish(result)
		return result, nil
	}

	if s.remote == nil {
		logger.Info("rewrite: remote rewriter not configured, using local fallback")
		return s.degrade(result, text, chunks, 0, cfg, domain.ErrConfiguration)
	}

	model := cfg.Model
	if model == "" {
		model = s.remote.ModelName()
	}

	run := &rewriteRun{
		svc:      s,
		cfg:      cfg,
		model:    model,
		window:   newRateWindow(cfg.MaxRequestsPerMinute, s.now()),
		throttle: newThrottle(cfg.MinIntervalBetweenCalls),
		result:   result,
	}

	logger.Section("Rewrite")
	logger.Debug("rewrite: %d chunks, model %s", len(chunks), model)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return s.abort(result, text, err)
		}

		outcome, err := run.rewriteChunk(ctx, i, chunk)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.abort(result, text, ctxErr)
			}
			res, derr := s.degrade(result, text, chunks, i, cfg, err)
			if i < len(res.Chunks) {
				res.Chunks[i].Attempts = outcome.Attempts
			}
			return res, derr
		}
		result.Chunks = append(result.Chunks, outcome)
		s.observer.ChunkDone(outcome.Source)
	}

	s.finish(result)
	logger.Info("rewrite: %d chunks, %d remote calls, %d rate waits",
		len(result.Chunks), result.RemoteCalls, result.RateWaits)
	return result, nil
}

// rewriteRun holds the pacing state for one document.
type rewriteRun struct {
	svc      *RewriteService
	cfg      domain.RewriteConfig
	model    string
	window   *rateWindow
	throttle *rate.Limiter
	result   *domain.RewriteResult
}

// rewriteChunk returns the outcome for one chunk, or the error that ends
// remote rewriting for the document.
func (r *rewriteRun) rewriteChunk(ctx context.Context, index int, chunk string) (domain.ChunkOutcome, error) {
	s := r.svc
	outcome := domain.ChunkOutcome{Index: index, Input: chunk}
	key := CacheKey(r.model, chunk)

	if cached, ok := r.lookup(ctx, key); ok {
		outcome.Output = cached
		outcome.Source = domain.SourceCache
		return outcome, nil
	}

	attempts := max(r.cfg.MaxRetriesPerChunk, 1)
	policy := newRetryPolicy()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := r.pace(ctx); err != nil {
			return outcome, err
		}

		text, err := s.remote.Rewrite(ctx, chunk, r.model)
		r.window.record()
		r.result.RemoteCalls++
		outcome.Attempts++
		s.observer.RemoteCall(r.model, err)

		if err == nil {
			outcome.Output = strings.TrimSpace(text)
			outcome.Source = domain.SourceRemote
			r.store(ctx, key, outcome.Output)
			return outcome, nil
		}

		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		logger.Warn("rewrite: chunk %d attempt %d/%d failed: %v", index+1, attempt, attempts, err)

		if errors.Is(err, domain.ErrQuotaExceeded) {
			return outcome, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		wait := policy.delay(retryHint(err))
		logger.Debug("rewrite: retrying chunk %d in %s", index+1, wait)
		if err := s.sleep(ctx, wait); err != nil {
			return outcome, err
		}
	}

	return outcome, fmt.Errorf("%w after %d attempts: %w", domain.ErrRetriesExhausted, attempts, lastErr)
}

// pace blocks until the rate gate and the throttle allow another call.
func (r *rewriteRun) pace(ctx context.Context) error {
	s := r.svc

	if d := r.window.delay(s.now()); d > 0 {
		logger.Info("rewrite: %d calls this minute, waiting %s", r.window.calls, d)
		r.result.RateWaits++
		s.observer.RateWait(d)
		if err := s.sleep(ctx, d); err != nil {
			return err
		}
		r.window.reset(s.now())
	}

	now := s.now()
	if d := r.throttle.ReserveN(now, 1).DelayFrom(now); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *rewriteRun) lookup(ctx context.Context, key string) (string, bool) {
	if r.svc.cache == nil {
		return "", false
	}
	v, ok, err := r.svc.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("rewrite: cache lookup failed: %v", err)
		return "", false
	}
	return v, ok
}

func (r *rewriteRun) store(ctx context.Context, key, value string) {
	if r.svc.cache == nil {
		return
	}
	if err := r.svc.cache.Set(ctx, key, value); err != nil {
		logger.Warn("rewrite: cache store failed: %v", err)
	}
}

// degrade finishes the document after remote rewriting stopped at chunk
// from. With fallback enabled the remaining chunks are rewritten locally;
// otherwise the original text is returned with a RewriteError.
func (s *RewriteService) degrade(
	result *domain.RewriteResult,
	text string,
	chunks []string,
	from int,
	cfg domain.RewriteConfig,
	cause error,
) (*domain.RewriteResult, error) {
	kind := domain.KindOf(cause)

	if !cfg.FallbackOnExhaustion {
		logger.Warn("rewrite: stopped at chunk %d (%s), fallback disabled", from+1, kind)
		s.finish(result)
		result.Text = text
		result.DegradedReason = kind
		return result, &domain.RewriteError{Kind: kind, Chunk: from, Err: cause}
	}

	logger.Warn("rewrite: falling back to local rewrite from chunk %d (%s)", from+1, kind)
	s.observer.Degraded(kind)
	for i := from; i < len(chunks); i++ {
		result.Chunks = append(result.Chunks, s.fallbackOutcome(i, chunks[i]))
		s.observer.ChunkDone(domain.SourceFallback)
	}
	result.Degraded = true
	result.DegradedReason = kind
	s.finish(result)
	return result, nil
}

// abort ends a cancelled run with the original text.
func (s *RewriteService) abort(result *domain.RewriteResult, text string, err error) (*domain.RewriteResult, error) {
	s.finish(result)
	result.Text = text
	return result, err
}

func (s *RewriteService) fallbackOutcome(index int, chunk string) domain.ChunkOutcome {
	return domain.ChunkOutcome{
		Index:  index,
		Input:  chunk,
		Output: s.fallback.Rewrite(chunk),
		Source: domain.SourceFallback,
	}
}

func (s *RewriteService) newResult() *domain.RewriteResult {
	return &domain.RewriteResult{
		ID:        uuid.New().String(),
		StartedAt: s.now(),
	}
}

// finish joins the chunk outputs and stamps the end time.
func (s *RewriteService) finish(result *domain.RewriteResult) {
	outputs := make([]string, len(result.Chunks))
	for i := range result.Chunks {
		outputs[i] = result.Chunks[i].Output
	}
	result.Text = strings.Join(outputs, chunkSeparator)
	result.FinishedAt = s.now()
}

// CacheKey identifies a remote rewrite of chunk by model. Spellings of the
// same model share a key.
func CacheKey(model, chunk string) string {
	sum := sha256.Sum256([]byte(domain.NormaliseModelName(model) + "\x00" + chunk))
	return hex.EncodeToString(sum[:])
}

// retryHint returns the server-suggested delay carried by err, if any.
func retryHint(err error) time.Duration {
	var qe *domain.QuotaError
	if errors.As(err, &qe) {
		return qe.RetryAfter
	}
	var te *domain.TransientError
	if errors.As(err, &te) {
		if te.RetryAfter > 0 {
			return te.RetryAfter
		}
	}
	if d, ok := domain.ParseRetryDelay(err.Error()); ok {
		return d
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type noopObserver struct{}

func (noopObserver) RemoteCall(string, error) {}
func (noopObserver) ChunkDone(domain.ChunkSource) {}
func (noopObserver) RateWait(time.Duration) {}
func (noopObserver) Degraded(domain.ErrorKind) {}
