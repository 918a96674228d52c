package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
	"github.com/custodia-labs/narrator-cli/internal/postprocessors/chunker"
)

// Ensure NarrationService implements the interface.
var _ driving.NarrationService = (*NarrationService)(nil)

// localModel is recorded in history for runs that never called a provider.
const localModel = "local"

// DefaultHistoryLimit is used when History is called with a non-positive limit.
const DefaultHistoryLimit = 20

// NarrationService extracts uploaded files and rewrites them for narration.
type NarrationService struct {
	normalisers driven.NormaliserRegistry
	rewriter    driving.RewriteService
	runs        driven.RunStore
}

// NewNarrationService creates a narration service. runs may be nil, in which
// case no history is kept.
func NewNarrationService(
	normalisers driven.NormaliserRegistry,
	rewriter driving.RewriteService,
	runs driven.RunStore,
) *NarrationService {
	return &NarrationService{
		normalisers: normalisers,
		rewriter:    rewriter,
		runs:        runs,
	}
}

// Extract converts raw file bytes into a document.
func (s *NarrationService) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers registered", domain.ErrUnsupportedType)
	}
	res, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	doc := res.Document
	logger.Debug("extracted %q: %d chars", doc.Title, len([]rune(doc.Content)))
	return &doc, nil
}

// Narrate extracts and rewrites a file, recording the run in history.
func (s *NarrationService) Narrate(
	ctx context.Context,
	raw *domain.RawDocument,
	opts driving.NarrateOptions,
) (*driving.Narration, error) {
	doc, err := s.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	model := opts.Config.Model
	var (
		result     *domain.RewriteResult
		rewriteErr error
	)
	if opts.Local {
		model = localModel
		result = s.rewriter.RewriteLocal(doc.Content, opts.Config.ChunkMaxChars)
	} else {
		result, rewriteErr = s.rewriter.RewriteDocument(ctx, doc.Content, opts.Config)
	}

	if result != nil && !errors.Is(rewriteErr, context.Canceled) {
		s.record(ctx, raw.URI, model, result)
	}

	return &driving.Narration{Document: *doc, Result: result}, rewriteErr
}

// Plan extracts raw and splits it the way a rewrite with the same chunk size
// would, so callers can see how many provider calls a document needs.
func (s *NarrationService) Plan(
	ctx context.Context,
	raw *domain.RawDocument,
	chunkMaxChars int,
) (*driving.Plan, error) {
	doc, err := s.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	var splitter driven.PostProcessor = chunker.New(chunker.WithChunkSize(chunkMaxChars))
	chunks, err := splitter.Process(ctx, doc, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", splitter.Name(), err)
	}
	return &driving.Plan{Document: *doc, Chunks: chunks}, nil
}

// History lists recent runs, newest first.
func (s *NarrationService) History(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.runs.List(ctx, limit)
}

// Run retrieves one run by ID.
func (s *NarrationService) Run(ctx context.Context, id string) (*domain.RunRecord, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound
	}
	return s.runs.Get(ctx, id)
}

// record saves a run summary. History is best effort and never fails a run.
func (s *NarrationService) record(ctx context.Context, source, model string, result *domain.RewriteResult) {
	if s.runs == nil || result.ID == "" {
		return
	}
	rec := domain.NewRunRecord(source, model, result)
	if err := s.runs.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("record run %s: %v", rec.ID, err)
	}
}
