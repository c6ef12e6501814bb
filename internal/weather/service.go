package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultRunCap is the maximum number of measurements stored per run.
	DefaultRunCap = 25
	// DefaultPacingDelay is the wait after each provider call.
	DefaultPacingDelay = 500 * time.Millisecond
)

// ServiceConfig carries the explicit inputs of a collection run.
type ServiceConfig struct {
	Cities      []string               // ordered; duplicates are processed twice
	Coordinates map[string]Coordinates // by exact city name
	RunCap      int                    // <= 0 means DefaultRunCap
	PacingDelay time.Duration

	// Clock returns the current time; nil means time.Now.
	Clock func() time.Time
}

// RunSummary reports the outcome of one collection run.
type RunSummary struct {
	RunID      string    `json:"runId"`
	Metric     Metric    `json:"metric"`
	Provider   string    `json:"provider"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Stored    int `json:"stored"`    // measurements written
	Attempted int `json:"attempted"` // provider calls made
	Failed    int `json:"failed"`    // provider calls that returned a FetchError
	Skipped   int `json:"skipped"`   // already collected today, or no coordinates
	Deferred  int `json:"deferred"`  // left for a later run by the cap
}

// Service orchestrates fetching from providers and persisting measurements.
// Runs are serialized: the freshness check and city creation of one run never
// interleave with another run on the same Service.
type Service struct {
	store     Store
	providers map[Metric]Provider
	cfg       ServiceConfig
	logger    *slog.Logger

	mu sync.Mutex
}

// NewService creates a new Service. At most one provider per metric is kept;
// a later provider for the same metric replaces an earlier one.
func NewService(store Store, providers []Provider, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RunCap <= 0 {
		cfg.RunCap = DefaultRunCap
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	byMetric := make(map[Metric]Provider, len(providers))
	for _, p := range providers {
		byMetric[p.Metric()] = p
	}
	return &Service{
		store:     store,
		providers: byMetric,
		cfg:       cfg,
		logger:    logger,
	}
}

// RunAll runs a collection for every configured metric in collection order.
// A storage failure stops the remaining metrics.
func (s *Service) RunAll(ctx context.Context) ([]RunSummary, error) {
	var summaries []RunSummary
	for _, m := range Metrics {
		if _, ok := s.providers[m]; !ok {
			s.logger.Warn("no provider configured; skipping metric", "metric", m)
			continue
		}
		sum, err := s.RunCollection(ctx, m)
		summaries = append(summaries, sum)
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// RunCollection walks the configured cities for one metric, storing at most
// RunCap new measurements. Per-city fetch failures and configuration gaps are
// logged and skipped; a StorageError or context cancellation ends the run and
// is returned together with the partial summary.
func (s *Service) RunCollection(ctx context.Context, metric Metric) (RunSummary, error) {
	p, ok := s.providers[metric]
	if !ok {
		return RunSummary{Metric: metric}, fmt.Errorf("%w: %s", ErrNoProvider, metric)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := RunSummary{
		RunID:     uuid.NewString(),
		Metric:    metric,
		Provider:  p.Name(),
		StartedAt: s.cfg.Clock().UTC(),
	}
	log := s.logger.With("run_id", sum.RunID, "metric", string(metric), "provider", p.Name())
	log.Info("collection run started", "cities", len(s.cfg.Cities), "cap", s.cfg.RunCap)

	finish := func(err error) (RunSummary, error) {
		sum.FinishedAt = s.cfg.Clock().UTC()
		if err != nil {
			log.Error("collection run aborted", "error", err, "stored", sum.Stored, "attempted", sum.Attempted)
			return sum, err
		}
		log.Info(fmt.Sprintf("stored %d of %d attempted", sum.Stored, sum.Attempted),
			"failed", sum.Failed, "skipped", sum.Skipped, "deferred", sum.Deferred)
		return sum, nil
	}

	for i, city := range s.cfg.Cities {
		if sum.Stored >= s.cfg.RunCap {
			sum.Deferred = len(s.cfg.Cities) - i
			log.Info("run cap reached; deferring remaining cities", "deferred", sum.Deferred)
			break
		}
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		city = strings.TrimSpace(city)
		if city == "" {
			sum.Skipped++
			log.Warn("skipping blank city name", "position", i)
			continue
		}

		fresh, err := s.hasFreshReading(ctx, city, metric)
		if err != nil {
			return finish(err)
		}
		if fresh {
			sum.Skipped++
			log.Info("reading already collected today; skipping", "city", city)
			continue
		}

		loc := NewLocation(city, s.cfg.Coordinates)
		if p.RequiresCoordinates() && !loc.HasCoordinates() {
			sum.Skipped++
			log.Warn("skipping city", "city", city, "error", ErrConfigurationGap)
			continue
		}

		sum.Attempted++
		reading, err := p.Fetch(ctx, loc)
		if err != nil {
			sum.Failed++
			logFetchFailure(log, city, err)
		} else {
			id, err := s.save(ctx, city, metric, reading)
			if err != nil {
				return finish(err)
			}
			sum.Stored++
			log.Info("stored reading", "city", city, "id", id, "value", reading.Value, "observed_at", reading.Timestamp)
		}

		if err := pause(ctx, s.cfg.PacingDelay); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

func (s *Service) hasFreshReading(ctx context.Context, city string, metric Metric) (bool, error) {
	cityID, found, err := s.store.LookupCity(ctx, city)
	if err != nil {
		return false, asStorageError("lookup city", err)
	}
	if !found {
		return false, nil
	}
	fresh, err := s.store.HasFreshReading(ctx, cityID, metric, s.cfg.Clock())
	if err != nil {
		return false, asStorageError("check fresh reading", err)
	}
	return fresh, nil
}

func (s *Service) save(ctx context.Context, city string, metric Metric, r Reading) (int64, error) {
	cityID, err := s.store.ResolveCity(ctx, city)
	if err != nil {
		return 0, asStorageError("resolve city", err)
	}

	collectedAt := s.cfg.Clock().UTC()
	observedAt := r.Timestamp.UTC()
	if r.Timestamp.IsZero() {
		observedAt = collectedAt
	}

	m := Measurement{
		CityID:      cityID,
		Metric:      metric,
		Value:       r.Value,
		ObservedAt:  observedAt,
		CollectedAt: collectedAt,
	}
	if metric == MetricWeather {
		m.Condition = r.Condition
		m.ConditionText = r.ConditionText
	}

	id, err := s.store.InsertMeasurement(ctx, m)
	if err != nil {
		return 0, asStorageError("insert measurement", err)
	}
	return id, nil
}

func logFetchFailure(log *slog.Logger, city string, err error) {
	var fe *FetchError
	if errors.As(err, &fe) {
		log.Warn("fetch failed; skipping city", "city", city, "kind", fe.Kind.String(), "error", err)
		return
	}
	log.Warn("fetch failed; skipping city", "city", city, "error", err)
}

func asStorageError(op string, err error) error {
	if IsStorageError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
