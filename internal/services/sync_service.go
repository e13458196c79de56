package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/feed"
	"marketplace-sync-service/internal/models"
)

// ErrRunInProgress is returned when a sync run is requested while another is active
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Runs are kept in memory only; older entries are dropped past this count.
const maxRunHistory = 20

// FeedFetcher supplies the remnant records for a sync run
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]feed.Remnant, error)
}

// Service orchestrates full stock/price synchronization runs: download the
// supplier feed once, then reconcile and submit it to every configured
// marketplace target in turn. Targets are independent, so a failed target
// never stops the run; its error lands in the target report instead.
type Service struct {
	fetcher FeedFetcher
	targets []clients.CatalogClient
	logger  *logrus.Logger
	timeout time.Duration

	mu     sync.Mutex
	active bool
	runs   map[uuid.UUID]*models.SyncRun
	order  []uuid.UUID
}

// NewService creates a new sync service
func NewService(fetcher FeedFetcher, targets []clients.CatalogClient, logger *logrus.Logger, timeout time.Duration) *Service {
	return &Service{
		fetcher: fetcher,
		targets: targets,
		logger:  logger,
		timeout: timeout,
		runs:    make(map[uuid.UUID]*models.SyncRun),
	}
}

// Targets lists the configured sync targets
func (s *Service) Targets() []models.TargetType {
	targets := make([]models.TargetType, 0, len(s.targets))
	for _, t := range s.targets {
		targets = append(targets, t.Target())
	}
	return targets
}

// StartRun begins a sync run in the background. Only one run may be active
// at a time. If only is non-empty, the run is restricted to that target.
func (s *Service) StartRun(trigger models.TriggerType, only models.TargetType) (models.SyncRun, error) {
	id, err := s.begin(trigger)
	if err != nil {
		return models.SyncRun{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.execute(ctx, id, only)
	}()

	run, _ := s.GetRun(id)
	return run, nil
}

// RunOnce executes a full sync run synchronously and returns the finished run
func (s *Service) RunOnce(ctx context.Context, trigger models.TriggerType) (models.SyncRun, error) {
	id, err := s.begin(trigger)
	if err != nil {
		return models.SyncRun{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.execute(runCtx, id, "")

	run, _ := s.GetRun(id)
	return run, nil
}

// GetRun returns a snapshot of the run with the given ID
func (s *Service) GetRun(id uuid.UUID) (models.SyncRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return models.SyncRun{}, false
	}
	return snapshot(run), true
}

// ListRuns returns snapshots of all retained runs, newest first
func (s *Service) ListRuns() []models.SyncRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]models.SyncRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		runs = append(runs, snapshot(s.runs[s.order[i]]))
	}
	return runs
}

// begin registers a new run, enforcing the single-active-run rule
func (s *Service) begin(trigger models.TriggerType) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return uuid.Nil, ErrRunInProgress
	}

	run := &models.SyncRun{
		ID:          uuid.New(),
		Status:      models.RunStatusRunning,
		TriggeredBy: trigger,
		StartedAt:   time.Now(),
	}
	s.active = true
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)

	if len(s.order) > maxRunHistory {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return run.ID, nil
}

// execute performs the run: one feed download, then every target in sequence
func (s *Service) execute(ctx context.Context, id uuid.UUID, only models.TargetType) {
	log := s.logger.WithField("runId", id.String())

	remnants, err := s.fetcher.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to download stock feed")
		s.finish(id, models.RunStatusFailed, fmt.Sprintf("stock feed: %v", err))
		return
	}
	s.update(id, func(run *models.SyncRun) {
		run.FeedRecords = len(remnants)
	})
	log.WithField("records", len(remnants)).Info("Stock feed downloaded")

	attempted, failed := 0, 0
	for _, target := range s.targets {
		if only != "" && target.Target() != only {
			continue
		}
		attempted++
		report := s.syncTarget(ctx, log, target, remnants)
		if report.Error != "" {
			failed++
		}
		s.update(id, func(run *models.SyncRun) {
			run.Targets = append(run.Targets, report)
		})
	}

	if attempted > 0 && failed == attempted {
		s.finish(id, models.RunStatusFailed, "all targets failed")
		return
	}
	s.finish(id, models.RunStatusCompleted, "")
}

// syncTarget reconciles the feed against one marketplace catalog and submits
// the resulting updates: stocks first, then prices
func (s *Service) syncTarget(ctx context.Context, log *logrus.Entry, target clients.CatalogClient, remnants []feed.Remnant) models.TargetReport {
	report := models.TargetReport{Target: target.Target()}
	log = log.WithField("target", string(target.Target()))
	log.Info("Target sync started")

	offerIDs, err := target.ListOfferIDs(ctx)
	if err != nil {
		return s.failTarget(log, report, "list offers", err)
	}
	report.OffersSeen = len(offerIDs)

	stocks, err := BuildStockRecords(remnants, offerIDs)
	if err != nil {
		return s.failTarget(log, report, "build stocks", err)
	}
	for _, stock := range stocks {
		if stock.Quantity != 0 {
			report.InStock++
		}
	}

	report.StockBatches, err = target.UpdateStocks(ctx, stocks)
	if err != nil {
		return s.failTarget(log, report, "update stocks", err)
	}
	report.StocksSubmitted = len(stocks)

	prices := BuildPriceRecords(remnants, offerIDs)
	report.PriceBatches, err = target.UpdatePrices(ctx, prices)
	if err != nil {
		return s.failTarget(log, report, "update prices", err)
	}
	report.PricesSubmitted = len(prices)

	log.WithFields(logrus.Fields{
		"offers":  report.OffersSeen,
		"stocks":  report.StocksSubmitted,
		"inStock": report.InStock,
		"prices":  report.PricesSubmitted,
	}).Info("Target sync completed")
	return report
}

// failTarget classifies the error, logs it and closes out the report. The
// run always continues with the next target.
func (s *Service) failTarget(log *logrus.Entry, report models.TargetReport, op string, err error) models.TargetReport {
	var statusErr *clients.StatusError
	switch {
	case clients.IsTimeout(err):
		log.WithError(err).Warn("Network timeout, moving to next target")
	case clients.IsConnectionError(err):
		log.WithError(err).Error("Connection failure, moving to next target")
	case errors.As(err, &statusErr):
		log.WithField("status", statusErr.Status).Error("Marketplace API rejected the request")
	default:
		log.WithError(err).Error("Target sync failed")
	}

	report.Error = fmt.Sprintf("%s: %v", op, err)
	return report
}

// update applies fn to the run record under the service lock
func (s *Service) update(id uuid.UUID, fn func(run *models.SyncRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run, ok := s.runs[id]; ok {
		fn(run)
	}
}

// finish closes out the run record and releases the active-run slot, in one
// critical section so a caller who sees a terminal status can start a new run
func (s *Service) finish(id uuid.UUID, status models.RunStatus, message string) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	if run, ok := s.runs[id]; ok {
		run.Status = status
		run.CompletedAt = &now
		run.ErrorMessage = message
	}
}

// snapshot copies a run record so callers never share memory with an active run
func snapshot(run *models.SyncRun) models.SyncRun {
	copied := *run
	copied.Targets = append([]models.TargetReport(nil), run.Targets...)
	return copied
}
