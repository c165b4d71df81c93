package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JohandeGraaf/busyness-tracker-pi/internal/aggregator"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/classifier"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/config"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/metrics"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/report"
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/uploader"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

type State int32

const (
	StateIdle State = iota
	StateCycleRunning
)

func (s State) String() string {
	if s == StateCycleRunning {
		return "cycle_running"
	}
	return "idle"
}

type Source interface {
	Fetch(ctx context.Context) ([]model.SightedDevice, error)
}

type Sender interface {
	Send(ctx context.Context, r model.Report) (uploader.Ack, error)
}

type Publisher interface {
	Publish(r model.Report, at time.Time) error
}

// Status summarizes the most recent cycle.
type Status struct {
	CycleID         string            `json:"cycle_id"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	Outcome         string            `json:"outcome"`
	Error           string            `json:"error,omitempty"`
	Records         int               `json:"records"`
	Dropped         int               `json:"dropped"`
	Malformed       int               `json:"malformed"`
	UploadAttempts  int               `json:"upload_attempts"`
	ClientCount     model.ClientCount `json:"client_count"`
	LastDeliveredAt *time.Time        `json:"last_delivered_at,omitempty"`
}

// Scheduler runs query, classify, aggregate, assemble and upload as one
// sequential cycle per tick. Only one cycle, and so only one report, is ever
// in flight.
type Scheduler struct {
	cfg        config.Config
	source     Source
	sender     Sender
	publisher  Publisher
	aggregator *aggregator.Aggregator
	assembler  *report.Assembler
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time

	refreshCh chan struct{}
	state     atomic.Int32

	mu            sync.RWMutex
	last          Status
	hasLast       bool
	lastDelivered *time.Time
}

func New(cfg config.Config, source Source, sender Sender, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		source:     source,
		sender:     sender,
		publisher:  publisher,
		aggregator: aggregator.New(),
		assembler:  report.NewAssembler(cfg.SourceName, report.Options{MaxAccessPoints: cfg.MaxAccessPoints}),
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		refreshCh:  make(chan struct{}, 1),
	}
}

// TriggerRefresh asks Run for an extra cycle. Requests made while one is
// already pending collapse into it.
func (s *Scheduler) TriggerRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) LastStatus() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// Run executes a cycle immediately and then on every tick until ctx is done.
// Ticks that fire while a cycle is running are dropped, so a slow backend
// never builds a backlog.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		_, _ = s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-s.refreshCh:
		case <-ticker.C:
		}
	}
}

// RunCycle performs one full cycle and records its outcome.
func (s *Scheduler) RunCycle(ctx context.Context) (Status, error) {
	s.state.Store(int32(StateCycleRunning))
	defer s.state.Store(int32(StateIdle))

	status := Status{CycleID: uuid.NewString(), StartedAt: s.now().UTC()}
	logger := s.logger.With("cycle", status.CycleID)

	err := s.cycle(ctx, logger, &status)
	status.Outcome = outcome(ctx, err)
	if err != nil {
		status.Error = err.Error()
	}
	status.FinishedAt = s.now().UTC()

	s.metrics.Cycles.WithLabelValues(status.Outcome).Inc()
	s.metrics.CycleDuration.Observe(status.FinishedAt.Sub(status.StartedAt).Seconds())

	s.mu.Lock()
	if status.Outcome == metrics.OutcomeDelivered {
		delivered := status.FinishedAt
		s.lastDelivered = &delivered
		s.metrics.LastDelivered.Set(float64(delivered.Unix()))
	}
	status.LastDeliveredAt = s.lastDelivered
	s.last = status
	s.hasLast = true
	s.mu.Unlock()

	s.logOutcome(logger, status, err)
	return status, err
}

func (s *Scheduler) cycle(ctx context.Context, logger *slog.Logger, status *Status) error {
	devices, err := s.source.Fetch(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	res := classifier.ClassifyAll(devices, now)
	status.Records = len(res.Records)
	status.Dropped = res.Dropped
	status.Malformed = res.Malformed
	s.metrics.Records.WithLabelValues("classified").Add(float64(len(res.Records)))
	s.metrics.Records.WithLabelValues("dropped").Add(float64(res.Dropped))
	s.metrics.Records.WithLabelValues("malformed").Add(float64(res.Malformed))
	if res.Malformed > 0 {
		logger.Warn("skipped malformed device records", "count", res.Malformed)
	}

	counts := s.aggregator.Aggregate(res.Records)
	status.ClientCount = counts
	s.metrics.ObserveCounts(counts)

	rep := s.assembler.Assemble(res.Records, counts)
	if s.publisher != nil {
		if err := s.publisher.Publish(rep, now); err != nil {
			logger.Warn("report feed publish failed", "err", err)
		}
	}

	ack, err := s.deliver(ctx, logger, rep, &status.UploadAttempts)
	if err != nil {
		return err
	}
	logger.Debug("collector acknowledged report", "status", ack.StatusCode, "request_id", ack.RequestID)
	return nil
}

// deliver sends the same report until it is accepted, rejected, or the retry
// budget runs out. Only unreachable errors are retried, and never past the
// next tick or after ctx is done.
func (s *Scheduler) deliver(ctx context.Context, logger *slog.Logger, rep model.Report, attempts *int) (uploader.Ack, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.UploadBackoff
	policy.MaxInterval = s.cfg.PollInterval

	return backoff.Retry(ctx, func() (uploader.Ack, error) {
		*attempts++
		s.metrics.UploadAttempts.Inc()
		ack, err := s.sender.Send(ctx, rep)
		if err == nil {
			return ack, nil
		}
		if errors.Is(err, model.ErrUnreachable) && ctx.Err() == nil {
			return ack, err
		}
		return ack, backoff.Permanent(err)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.cfg.UploadRetries)+1),
		backoff.WithMaxElapsedTime(s.cfg.PollInterval),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("report delivery failed; retrying", "err", err, "retry_in", wait)
		}),
	)
}

func outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeDelivered
	case ctx.Err() != nil:
		return metrics.OutcomeCanceled
	case errors.Is(err, model.ErrBackendUnavailable):
		return metrics.OutcomeBackendUnavailable
	case errors.Is(err, model.ErrRejected):
		return metrics.OutcomeRejected
	case errors.Is(err, model.ErrUnreachable):
		return metrics.OutcomeUnreachable
	default:
		return metrics.OutcomeFailed
	}
}

func (s *Scheduler) logOutcome(logger *slog.Logger, status Status, err error) {
	attrs := []any{
		"outcome", status.Outcome,
		"records", status.Records,
		"dropped", status.Dropped,
		"upload_attempts", status.UploadAttempts,
		"duration_ms", status.FinishedAt.Sub(status.StartedAt).Milliseconds(),
	}
	switch status.Outcome {
	case metrics.OutcomeDelivered:
		logger.Info("report delivered", append(attrs,
			"filtered_num_last_5_mins", status.ClientCount.FilteredLast5Mins,
			"num_clients_last_hour", status.ClientCount.ClientsLastHour)...)
	case metrics.OutcomeCanceled:
		logger.Info("cycle abandoned on shutdown", attrs...)
	case metrics.OutcomeBackendUnavailable:
		logger.Warn("cycle abandoned; sensing backend unavailable", append(attrs, "err", err)...)
	case metrics.OutcomeRejected:
		logger.Warn("collector rejected report; dropping it", append(attrs, "err", err)...)
	default:
		logger.Error("report delivery abandoned", append(attrs, "err", err)...)
	}
}
