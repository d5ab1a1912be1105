package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/Veraticus/foodlens/internal/model"
)

// SpyClassifier is a LocalClassifier that returns canned predictions and
// records every call.
type SpyClassifier struct {
	// Block, when set, makes Classify wait for it to close or for the
	// context to end, whichever comes first.
	Block       chan struct{}
	Err         error
	Predictions model.Predictions
	calls       int
	mu          sync.Mutex
}

// Classify implements service.LocalClassifier.
func (s *SpyClassifier) Classify(ctx context.Context, _ []byte) (model.Predictions, error) {
	s.mu.Lock()
	s.calls++
	block := s.Block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Predictions.Clone(), nil
}

// Calls returns how many times Classify ran.
func (s *SpyClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SpyAnalyzer is a RemoteAnalyzer that returns canned predictions and
// records every call.
type SpyAnalyzer struct {
	Block       chan struct{}
	Err         error
	Predictions model.Predictions
	calls       int
	mu          sync.Mutex
}

// Analyze implements service.RemoteAnalyzer.
func (s *SpyAnalyzer) Analyze(ctx context.Context, _ []byte) (model.Predictions, error) {
	s.mu.Lock()
	s.calls++
	block := s.Block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Predictions.Clone(), nil
}

// Calls returns how many times Analyze ran.
func (s *SpyAnalyzer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// StubLookup is a NutritionLookup backed by a map of lower-cased names.
type StubLookup struct {
	Err     error
	Records map[string]model.NutritionRecord
	queries []string
	mu      sync.Mutex
}

// NewStubLookup indexes records by name.
func NewStubLookup(records ...model.NutritionRecord) *StubLookup {
	s := &StubLookup{Records: make(map[string]model.NutritionRecord, len(records))}
	for _, r := range records {
		s.Records[strings.ToLower(r.Name)] = r
	}
	return s
}

// Search implements service.NutritionLookup with exact, case-insensitive
// matching.
func (s *StubLookup) Search(_ context.Context, query string, limit int) ([]model.NutritionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)

	if s.Err != nil {
		return nil, s.Err
	}
	record, ok := s.Records[strings.ToLower(strings.TrimSpace(query))]
	if !ok || limit == 0 {
		return nil, nil
	}
	return []model.NutritionRecord{record}, nil
}

// Queries returns the queries seen so far, in arrival order.
func (s *StubLookup) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// SpyReachability reports a fixed connectivity state.
type SpyReachability struct {
	Connected bool
	calls     int
	mu        sync.Mutex
}

// IsConnected implements service.Reachability.
func (s *SpyReachability) IsConnected(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Connected
}

// Calls returns how many times connectivity was checked.
func (s *SpyReachability) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Preds is shorthand for building a prediction list in tests.
func Preds(source model.Source, pairs ...any) model.Predictions {
	out := make(model.Predictions, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		label, _ := pairs[i].(string)
		confidence, _ := pairs[i+1].(float64)
		out = append(out, model.NewPrediction(label, confidence, source))
	}
	return out
}
