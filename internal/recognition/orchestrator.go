// Package recognition turns a food photo into ranked, nutrition-checked
// predictions by arbitrating between a local model and a remote service.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/foodlens/internal/cache"
	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/fingerprint"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/Veraticus/foodlens/internal/service"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// state names the steps of a recognition run, for logging.
type state string

const (
	stateStart                  state = "start"
	stateLocalClassifying       state = "local_classifying"
	stateHighConfidenceAccepted state = "high_confidence_accepted"
	stateNeedsRemote            state = "needs_remote"
	stateRemoteAttempting       state = "remote_attempting"
	stateRemoteMerged           state = "remote_merged"
	stateRemoteFailedFallback   state = "remote_failed_fallback"
	stateEnriching              state = "enriching"
	stateDone                   state = "done"
)

// errCanceled marks a run abandoned because its caller went away.
var errCanceled = errors.New("recognition canceled")

// Dependencies are the collaborators an Orchestrator calls. Local, Remote
// and Lookup may be nil to disable that source. A nil Reachability counts as
// always connected; a nil Fingerprinter or Cache gets the default one.
type Dependencies struct {
	Local         service.LocalClassifier
	Remote        service.RemoteAnalyzer
	Lookup        service.NutritionLookup
	Reachability  service.Reachability
	Fingerprinter service.Fingerprinter
	Cache         *cache.ResultCache
}

// Stats counts how recognition requests ended.
type Stats struct {
	Requests      int64 `json:"requests"`
	CacheHits     int64 `json:"cache_hits"`
	SharedResults int64 `json:"shared_results"`
	LocalAccepted int64 `json:"local_accepted"`
	RemoteMerged  int64 `json:"remote_merged"`
	RemoteOnly    int64 `json:"remote_only"`
	LocalFallback int64 `json:"local_fallback"`
	RemoteCalls   int64 `json:"remote_calls"`
	Failures      int64 `json:"failures"`
}

type counters struct {
	requests      atomic.Int64
	cacheHits     atomic.Int64
	sharedResults atomic.Int64
	localAccepted atomic.Int64
	remoteMerged  atomic.Int64
	remoteOnly    atomic.Int64
	localFallback atomic.Int64
	remoteCalls   atomic.Int64
	failures      atomic.Int64
}

// Orchestrator runs the recognition state machine.
type Orchestrator struct {
	deps     Dependencies
	logger   *slog.Logger
	now      func() time.Time
	newRef   func() string
	enricher *Enricher
	group    singleflight.Group
	counters counters
	sanity   SanityFilter
	cfg      Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRefGenerator replaces the UUID generator for source image references.
func WithRefGenerator(newRef func() string) Option {
	return func(o *Orchestrator) {
		o.newRef = newRef
	}
}

// New creates an orchestrator. The cache in deps is shared with anyone else
// holding it; the orchestrator never replaces it.
func New(deps Dependencies, cfg Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Fingerprinter == nil {
		deps.Fingerprinter = fingerprint.NewRolling()
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(cache.DefaultCapacity, cache.DefaultTTL)
	}

	o := &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newRef: func() string { return uuid.New().String() },
		sanity: SanityFilter{MinLabelLength: cfg.SanityMinLabelLength},
		enricher: &Enricher{
			Lookup:      deps.Lookup,
			Logger:      logger,
			MissPenalty: cfg.EnrichmentMissPenalty,
			Concurrency: cfg.EnrichmentConcurrency,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Recognize identifies the food in image. It fails only when the image is
// empty, the caller cancels, or neither recognizer produced anything usable.
// The returned result is the caller's own copy.
func (o *Orchestrator) Recognize(ctx context.Context, image []byte) (model.RecognitionResult, error) {
	o.counters.requests.Add(1)

	if len(image) == 0 {
		o.counters.failures.Add(1)
		return model.RecognitionResult{}, &common.RecognitionError{
			Kind:     common.KindInvalidInput,
			LocalErr: fmt.Errorf("%w: empty image", common.ErrInvalidImage),
		}
	}
	if err := ctx.Err(); err != nil {
		return model.RecognitionResult{}, fmt.Errorf("%w: %w", errCanceled, err)
	}

	key := o.deps.Fingerprinter.Fingerprint(image)
	o.logger.Debug("Recognition state", "state", stateStart, "fingerprint", key)

	if cached, found := o.deps.Cache.Get(key); found {
		o.counters.cacheHits.Add(1)
		o.logger.Debug("Recognition cache hit", "fingerprint", key, "path", cached.Path)
		return cached, nil
	}

	if !o.cfg.SingleFlight {
		return o.compute(ctx, key, image)
	}
	return o.computeShared(ctx, key, image)
}

// ClearCache drops every cached result.
func (o *Orchestrator) ClearCache() {
	o.deps.Cache.Clear()
	o.logger.Info("Recognition cache cleared")
}

// CacheStats reports the underlying cache counters.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.deps.Cache.Stats()
}

// Stats returns a snapshot of request outcomes.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Requests:      o.counters.requests.Load(),
		CacheHits:     o.counters.cacheHits.Load(),
		SharedResults: o.counters.sharedResults.Load(),
		LocalAccepted: o.counters.localAccepted.Load(),
		RemoteMerged:  o.counters.remoteMerged.Load(),
		RemoteOnly:    o.counters.remoteOnly.Load(),
		LocalFallback: o.counters.localFallback.Load(),
		RemoteCalls:   o.counters.remoteCalls.Load(),
		Failures:      o.counters.failures.Load(),
	}
}

// computeShared collapses concurrent misses for one fingerprint into a single
// computation. If the leading caller gave up, a waiting caller that is still
// interested runs the work itself.
func (o *Orchestrator) computeShared(ctx context.Context, key string, image []byte) (model.RecognitionResult, error) {
	ch := o.group.DoChan(key, func() (any, error) {
		return o.compute(ctx, key, image)
	})

	select {
	case <-ctx.Done():
		return model.RecognitionResult{}, fmt.Errorf("%w: %w", errCanceled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, errCanceled) && ctx.Err() == nil {
				o.logger.Debug("Shared recognition was canceled, recomputing", "fingerprint", key)
				return o.compute(ctx, key, image)
			}
			return model.RecognitionResult{}, res.Err
		}
		if res.Shared {
			o.counters.sharedResults.Add(1)
		}
		result, _ := res.Val.(model.RecognitionResult)
		return result.Clone(), nil
	}
}

func (o *Orchestrator) compute(ctx context.Context, key string, image []byte) (model.RecognitionResult, error) {
	start := time.Now()
	logger := o.logger.With("fingerprint", key)

	logger.Debug("Recognition state", "state", stateLocalClassifying)
	local, localErr := o.classifyLocal(ctx, image)
	if err := ctx.Err(); err != nil {
		return model.RecognitionResult{}, fmt.Errorf("%w: %w", errCanceled, err)
	}
	if localErr != nil {
		logger.Warn("Local classification failed", "error", localErr)
	}

	var (
		preds model.Predictions
		path  model.Path
	)

	if localErr == nil {
		if top := local.Top(); top != nil && top.Confidence >= o.cfg.LocalConfidenceThreshold {
			logger.Debug("Recognition state",
				"state", stateHighConfidenceAccepted,
				"label", top.Label,
				"confidence", top.Confidence)
			preds = local
			path = model.PathLocalAccepted
		}
	}

	if path == "" {
		logger.Debug("Recognition state", "state", stateNeedsRemote)
		remote, remoteErr := o.analyzeRemote(ctx, logger, image)
		if err := ctx.Err(); err != nil {
			return model.RecognitionResult{}, fmt.Errorf("%w: %w", errCanceled, err)
		}

		switch {
		case remoteErr == nil && localErr == nil && len(local) > 0 && len(remote) > 0:
			logger.Debug("Recognition state", "state", stateRemoteMerged)
			preds = Merge(local, remote, o.cfg.AgreementBoost, o.cfg.AgreementCap)
			path = model.PathRemoteMerged
		case remoteErr == nil && (localErr != nil || len(local) == 0):
			logger.Debug("Recognition state", "state", stateRemoteMerged, "remote_only", true)
			preds = remote
			path = model.PathRemoteOnly
		case localErr == nil:
			if remoteErr != nil {
				logger.Info("Remote analysis unavailable, using local predictions", "error", remoteErr)
			}
			logger.Debug("Recognition state", "state", stateRemoteFailedFallback)
			preds = local
			path = model.PathLocalFallback
		default:
			o.counters.failures.Add(1)
			logger.Warn("No usable recognition path",
				"local_error", localErr,
				"remote_error", remoteErr)
			return model.RecognitionResult{}, &common.RecognitionError{
				Kind:      common.KindNoUsablePath,
				LocalErr:  localErr,
				RemoteErr: remoteErr,
			}
		}
	}

	logger.Debug("Recognition state", "state", stateEnriching, "candidates", len(preds))
	preds = o.sanity.Apply(preds)
	preds = o.enricher.Enrich(ctx, preds)
	preds.SortByConfidence()
	if err := ctx.Err(); err != nil {
		return model.RecognitionResult{}, fmt.Errorf("%w: %w", errCanceled, err)
	}

	result := model.RecognitionResult{
		Timestamp:      o.now(),
		SourceImageRef: o.newRef(),
		Fingerprint:    key,
		Path:           path,
		Predictions:    preds,
	}
	o.deps.Cache.Put(key, result)
	o.countPath(path)

	logger.Debug("Recognition state", "state", stateDone)
	logger.Info("Recognition complete",
		"path", path,
		"predictions", len(preds),
		"needs_confirmation", result.NeedsUserConfirmation(),
		"duration", time.Since(start))

	return result, nil
}

// classifyLocal runs the local model under its timeout. Results are
// normalized to clamped, local-tagged predictions.
func (o *Orchestrator) classifyLocal(ctx context.Context, image []byte) (model.Predictions, error) {
	if o.deps.Local == nil {
		return nil, fmt.Errorf("%w: no local classifier configured", common.ErrModelUnavailable)
	}

	lctx, cancel := context.WithTimeout(ctx, o.cfg.LocalTimeout)
	defer cancel()

	preds, err := o.deps.Local.Classify(lctx, image)
	if err != nil {
		return nil, fmt.Errorf("local classification: %w", err)
	}
	if err := lctx.Err(); err != nil {
		return nil, fmt.Errorf("local classification: %w", err)
	}
	return normalize(preds, model.SourceLocal), nil
}

// analyzeRemote makes at most one remote call, after checking reachability.
func (o *Orchestrator) analyzeRemote(ctx context.Context, logger *slog.Logger, image []byte) (model.Predictions, error) {
	if o.deps.Remote == nil {
		return nil, fmt.Errorf("%w: no remote analyzer configured", common.ErrNetwork)
	}
	if o.deps.Reachability != nil && !o.deps.Reachability.IsConnected(ctx) {
		return nil, fmt.Errorf("%w: remote service unreachable", common.ErrNetwork)
	}

	logger.Debug("Recognition state", "state", stateRemoteAttempting)
	o.counters.remoteCalls.Add(1)

	rctx, cancel := context.WithTimeout(ctx, o.cfg.RemoteTimeout)
	defer cancel()

	preds, err := o.deps.Remote.Analyze(rctx, image)
	if err != nil {
		return nil, fmt.Errorf("remote analysis: %w", err)
	}
	if err := rctx.Err(); err != nil {
		return nil, fmt.Errorf("remote analysis: %w", err)
	}
	return normalize(preds, model.SourceRemote), nil
}

func (o *Orchestrator) countPath(path model.Path) {
	switch path {
	case model.PathLocalAccepted:
		o.counters.localAccepted.Add(1)
	case model.PathRemoteMerged:
		o.counters.remoteMerged.Add(1)
	case model.PathRemoteOnly:
		o.counters.remoteOnly.Add(1)
	case model.PathLocalFallback:
		o.counters.localFallback.Add(1)
	}
}

func normalize(preds model.Predictions, source model.Source) model.Predictions {
	out := preds.WithSource(source)
	for i := range out {
		out[i].Confidence = model.ClampConfidence(out[i].Confidence)
	}
	return out
}
