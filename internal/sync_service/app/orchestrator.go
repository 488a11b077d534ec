package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	"github.com/voiceops/teamsadmin/internal/sync_service/domain"
)

var (
	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voiceadmin",
			Name:      "sync_runs_total",
			Help:      "Total number of completed reconciliation cycles.",
		},
		[]string{"status"},
	)
	syncFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "voiceadmin",
			Name:      "sync_fetch_duration_seconds",
			Help:      "Duration of the remote directory fetch during sync.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// SyncCommittedSubject is the NATS subject for committed reconciliations.
const SyncCommittedSubject = "voiceadmin.sync.committed"

// SyncCommittedEvent is published after a commit so downstream consumers
// (the ticketing worker) can record the change.
type SyncCommittedEvent struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Added       int       `json:"added"`
	Updated     int       `json:"updated"`
	CommittedAt time.Time `json:"committed_at"`
}

// DirectoryFetcher is the remote Teams directory as seen by the orchestrator.
type DirectoryFetcher interface {
	FetchDirectory(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error)
}

// LocalInventory is the subset of the inventory application the
// orchestrator needs: a full tenant snapshot and the selective commit.
type LocalInventory interface {
	Snapshot(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error)
	ApplyDirectoryChanges(ctx context.Context, tenantID uuid.UUID, records []*invdomain.PhoneNumberRecord) (added, updated int, err error)
}

// EventPublisher publishes domain events. May be nil-backed in tests.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// State of a tenant's reconciliation cycle.
type State string

const (
	StateIdle          State = "idle"
	StateSyncing       State = "syncing"
	StateCommitPending State = "commit_pending"
	StateCommitting    State = "committing"
)

// SyncReview is what the operator sees after a sync: the classification
// and the current selection. UpToDate short-circuits review when there is
// nothing to commit; Discarded reports a sync whose result was dropped
// because the operator dismissed the review while it was in flight.
type SyncReview struct {
	State     State              `json:"state"`
	UpToDate  bool               `json:"up_to_date"`
	Discarded bool               `json:"discarded,omitempty"`
	Diff      *domain.DiffResult `json:"diff,omitempty"`
	Selected  []string           `json:"selected,omitempty"`
	StartedAt time.Time          `json:"started_at"`
}

// CommitResult reports what a commit actually changed locally.
type CommitResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

type tenantSync struct {
	state     State
	diff      *domain.DiffResult
	selected  map[string]bool
	startedAt time.Time
	dismissed bool
}

// Orchestrator drives the fetch-classify-review-commit reconciliation cycle.
// State is kept per tenant; tenants never share snapshots or selections, and
// at most one sync or commit is in flight per tenant at a time.
type Orchestrator struct {
	directory DirectoryFetcher
	inventory LocalInventory
	runRepo   domain.SyncRunRepository
	events    EventPublisher
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	tenants map[uuid.UUID]*tenantSync
}

func NewOrchestrator(
	directory DirectoryFetcher,
	inventory LocalInventory,
	runRepo domain.SyncRunRepository,
	events EventPublisher,
	remoteTimeout time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if remoteTimeout <= 0 {
		remoteTimeout = 45 * time.Second
	}
	return &Orchestrator{
		directory: directory,
		inventory: inventory,
		runRepo:   runRepo,
		events:    events,
		timeout:   remoteTimeout,
		logger:    logger,
		tenants:   make(map[uuid.UUID]*tenantSync),
	}
}

func (o *Orchestrator) entry(tenantID uuid.UUID) *tenantSync {
	ts, ok := o.tenants[tenantID]
	if !ok {
		ts = &tenantSync{state: StateIdle}
		o.tenants[tenantID] = ts
	}
	return ts
}

// StartSync fetches the remote and local snapshots, classifies them and,
// when there are changes, parks them for operator review with everything
// selected. A sync with nothing to commit reports up-to-date and returns
// straight to idle. Re-entry while a sync or commit is running is rejected
// with ErrSyncInProgress. Starting a new sync while a review is pending
// replaces the pending review.
func (o *Orchestrator) StartSync(ctx context.Context, tenantID uuid.UUID) (*SyncReview, error) {
	o.mu.Lock()
	ts := o.entry(tenantID)
	if ts.state == StateSyncing || ts.state == StateCommitting {
		o.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	prevDiff, prevSelected := ts.diff, ts.selected
	startedAt := time.Now().UTC()
	ts.state = StateSyncing
	ts.startedAt = startedAt
	ts.dismissed = false
	o.mu.Unlock()

	restore := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if ts.dismissed {
			// The operator dismissed while the failed sync was in
			// flight; the dismissal takes the old review with it.
			ts.state = StateIdle
			ts.diff = nil
			ts.selected = nil
			ts.dismissed = false
			return
		}
		if prevDiff != nil {
			ts.state = StateCommitPending
			ts.diff = prevDiff
			ts.selected = prevSelected
		} else {
			ts.state = StateIdle
			ts.diff = nil
			ts.selected = nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	fetchStart := time.Now()
	remote, err := o.directory.FetchDirectory(fetchCtx, tenantID)
	syncFetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		restore()
		o.logger.ErrorContext(ctx, "remote directory fetch failed", "tenant_id", tenantID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("fetch remote directory: %w", err)
	}

	local, err := o.inventory.Snapshot(ctx, tenantID)
	if err != nil {
		restore()
		o.logger.ErrorContext(ctx, "local inventory snapshot failed", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("fetch local inventory: %w", err)
	}

	diff := domain.Classify(remote, local)
	summary := diff.Summary()

	o.mu.Lock()
	defer o.mu.Unlock()

	if ts.dismissed {
		// The operator closed the review while the fetch was in flight;
		// the completed result is discarded silently.
		ts.state = StateIdle
		ts.diff = nil
		ts.selected = nil
		ts.dismissed = false
		o.logger.InfoContext(ctx, "sync result discarded after dismissal", "tenant_id", tenantID)
		return &SyncReview{State: StateIdle, Discarded: true, StartedAt: startedAt}, nil
	}

	if !diff.HasChanges() {
		ts.state = StateIdle
		ts.diff = nil
		ts.selected = nil
		o.recordRun(ctx, tenantID, startedAt, summary, 0, 0, domain.RunStatusUpToDate, "")
		syncRunsTotal.WithLabelValues(domain.RunStatusUpToDate).Inc()
		o.logger.InfoContext(ctx, "inventory up to date", "tenant_id", tenantID, "teams_total", summary.TeamsTotal)
		return &SyncReview{State: StateIdle, UpToDate: true, Diff: diff, StartedAt: startedAt}, nil
	}

	selected := make(map[string]bool, summary.ToAdd+summary.ToUpdate)
	for _, change := range diff.ToAdd {
		selected[change.LineURI] = true
	}
	for _, change := range diff.ToUpdate {
		selected[change.LineURI] = true
	}
	ts.state = StateCommitPending
	ts.diff = diff
	ts.selected = selected

	o.logger.InfoContext(ctx, "sync classified, awaiting review",
		"tenant_id", tenantID, "to_add", summary.ToAdd, "to_update", summary.ToUpdate, "unchanged", summary.Unchanged)
	return &SyncReview{
		State:     StateCommitPending,
		Diff:      diff,
		Selected:  sortedSelection(selected),
		StartedAt: startedAt,
	}, nil
}

// Review returns the pending classification and selection for a tenant.
func (o *Orchestrator) Review(tenantID uuid.UUID) (*SyncReview, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := o.entry(tenantID)
	if ts.state != StateCommitPending {
		return nil, domain.ErrNoPendingSync
	}
	return &SyncReview{
		State:     ts.state,
		Diff:      ts.diff,
		Selected:  sortedSelection(ts.selected),
		StartedAt: ts.startedAt,
	}, nil
}

// UpdateSelection replaces the selected subset. Every line URI must belong
// to the pending diff's add or update sets.
func (o *Orchestrator) UpdateSelection(tenantID uuid.UUID, lineURIs []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := o.entry(tenantID)
	if ts.state != StateCommitPending {
		return domain.ErrNoPendingSync
	}

	allowed := make(map[string]bool, len(ts.diff.ToAdd)+len(ts.diff.ToUpdate))
	for _, change := range ts.diff.ToAdd {
		allowed[change.LineURI] = true
	}
	for _, change := range ts.diff.ToUpdate {
		allowed[change.LineURI] = true
	}

	selected := make(map[string]bool, len(lineURIs))
	for _, uri := range lineURIs {
		if !allowed[uri] {
			return fmt.Errorf("%w: %s", domain.ErrUnknownSelection, uri)
		}
		selected[uri] = true
	}
	ts.selected = selected
	return nil
}

// Commit applies the currently selected subset of the pending diff to the
// local inventory. On failure the review is preserved, selection included,
// and the error is surfaced; nothing is assumed partially committed.
func (o *Orchestrator) Commit(ctx context.Context, tenantID uuid.UUID) (*CommitResult, error) {
	o.mu.Lock()
	ts := o.entry(tenantID)
	if ts.state == StateSyncing || ts.state == StateCommitting {
		o.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	if ts.state != StateCommitPending {
		o.mu.Unlock()
		return nil, domain.ErrNoPendingSync
	}
	ts.state = StateCommitting
	diff := ts.diff
	startedAt := ts.startedAt
	summary := diff.Summary()

	var records []*invdomain.PhoneNumberRecord
	appendSelected := func(changes []domain.Change) {
		for _, change := range changes {
			if ts.selected[change.LineURI] {
				rec := *change.Remote
				if rec.ID == uuid.Nil {
					rec.ID = uuid.New()
				}
				if rec.CreatedAt.IsZero() {
					rec.CreatedAt = time.Now().UTC()
				}
				rec.TenantID = tenantID
				records = append(records, &rec)
			}
		}
	}
	appendSelected(diff.ToAdd)
	appendSelected(diff.ToUpdate)
	o.mu.Unlock()

	applyCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	added, updated, err := o.inventory.ApplyDirectoryChanges(applyCtx, tenantID, records)
	if err != nil {
		o.mu.Lock()
		ts.state = StateCommitPending
		o.mu.Unlock()
		o.recordRun(ctx, tenantID, startedAt, summary, added, updated, domain.RunStatusFailed, err.Error())
		syncRunsTotal.WithLabelValues(domain.RunStatusFailed).Inc()
		o.logger.ErrorContext(ctx, "commit failed, review preserved", "tenant_id", tenantID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("apply selected changes: %w", err)
	}

	o.mu.Lock()
	ts.state = StateIdle
	ts.diff = nil
	ts.selected = nil
	o.mu.Unlock()

	o.recordRun(ctx, tenantID, startedAt, summary, added, updated, domain.RunStatusCommitted, "")
	syncRunsTotal.WithLabelValues(domain.RunStatusCommitted).Inc()
	o.publishCommitted(ctx, tenantID, added, updated)
	o.logger.InfoContext(ctx, "sync committed", "tenant_id", tenantID, "added", added, "updated", updated)
	return &CommitResult{Added: added, Updated: updated}, nil
}

// Dismiss discards the pending review without side effects. If a sync is
// still in flight its result is discarded once it completes rather than
// forcibly aborted.
func (o *Orchestrator) Dismiss(tenantID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := o.entry(tenantID)
	switch ts.state {
	case StateCommitPending:
		ts.state = StateIdle
		ts.diff = nil
		ts.selected = nil
		return nil
	case StateSyncing:
		ts.dismissed = true
		return nil
	case StateCommitting:
		return domain.ErrSyncInProgress
	default:
		return domain.ErrNoPendingSync
	}
}

// CurrentState reports the tenant's reconciliation state.
func (o *Orchestrator) CurrentState(tenantID uuid.UUID) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.entry(tenantID).state
}

// ListRuns returns the tenant's reconciliation audit history.
func (o *Orchestrator) ListRuns(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.SyncRun, error) {
	return o.runRepo.ListByTenant(ctx, tenantID, offset, limit)
}

func (o *Orchestrator) recordRun(ctx context.Context, tenantID uuid.UUID, startedAt time.Time, summary domain.Summary, added, updated int, status, errMsg string) {
	if o.runRepo == nil {
		return
	}
	run := &domain.SyncRun{
		ID:         uuid.New(),
		TenantID:   tenantID,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		TeamsTotal: summary.TeamsTotal,
		LocalTotal: summary.LocalTotal,
		ToAdd:      summary.ToAdd,
		ToUpdate:   summary.ToUpdate,
		Unchanged:  summary.Unchanged,
		Added:      added,
		Updated:    updated,
		Status:     status,
		Error:      errMsg,
	}
	if err := o.runRepo.Create(ctx, run); err != nil {
		// Audit history is best-effort; the reconciliation itself already
		// succeeded or failed on its own terms.
		o.logger.ErrorContext(ctx, "failed to record sync run", "tenant_id", tenantID, "error", err)
	}
}

func (o *Orchestrator) publishCommitted(ctx context.Context, tenantID uuid.UUID, added, updated int) {
	if o.events == nil {
		return
	}
	event := SyncCommittedEvent{
		TenantID:    tenantID,
		Added:       added,
		Updated:     updated,
		CommittedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to marshal sync committed event", "error", err)
		return
	}
	if err := o.events.Publish(ctx, SyncCommittedSubject, data); err != nil {
		o.logger.ErrorContext(ctx, "failed to publish sync committed event", "tenant_id", tenantID, "error", err)
	}
}

func sortedSelection(selected map[string]bool) []string {
	uris := make([]string, 0, len(selected))
	for uri := range selected {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
