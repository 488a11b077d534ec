package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	"github.com/voiceops/teamsadmin/internal/sync_service/domain"
)

type fakeDirectory struct {
	fetch func(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error)
}

func (f *fakeDirectory) FetchDirectory(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
	return f.fetch(ctx, tenantID)
}

type fakeInventory struct {
	mu       sync.Mutex
	local    []*invdomain.PhoneNumberRecord
	applied  []*invdomain.PhoneNumberRecord
	applyErr error
}

func (f *fakeInventory) Snapshot(ctx context.Context, tenantID uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local, nil
}

func (f *fakeInventory) ApplyDirectoryChanges(ctx context.Context, tenantID uuid.UUID, records []*invdomain.PhoneNumberRecord) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return 0, 0, f.applyErr
	}
	var added, updated int
	for _, rec := range records {
		replaced := false
		for i, existing := range f.local {
			if existing.LineURI == rec.LineURI {
				f.local[i] = rec
				replaced = true
				updated++
				break
			}
		}
		if !replaced {
			f.local = append(f.local, rec)
			added++
		}
	}
	f.applied = append(f.applied, records...)
	return added, updated, nil
}

type recordingRunRepo struct {
	mu   sync.Mutex
	runs []*domain.SyncRun
}

func (r *recordingRunRepo) Create(ctx context.Context, run *domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingRunRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func testRecord(lineURI, displayName string) *invdomain.PhoneNumberRecord {
	return &invdomain.PhoneNumberRecord{
		LineURI:           lineURI,
		DisplayName:       displayName,
		UserPrincipalName: displayName + "@contoso.com",
		RoutingPolicy:     "US-East",
	}
}

func newTestOrchestrator(directory DirectoryFetcher, inventory LocalInventory, runRepo domain.SyncRunRepository, events EventPublisher) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(directory, inventory, runRepo, events, 5*time.Second, logger)
}

func TestStartSync_UpToDate(t *testing.T) {
	tenantID := uuid.New()
	same := testRecord("tel:+14255550100", "Ada")
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{same}, nil
	}}
	inventory := &fakeInventory{local: []*invdomain.PhoneNumberRecord{same}}
	runRepo := &recordingRunRepo{}

	o := newTestOrchestrator(directory, inventory, runRepo, nil)
	review, err := o.StartSync(context.Background(), tenantID)

	require.NoError(t, err)
	assert.True(t, review.UpToDate)
	assert.Equal(t, StateIdle, review.State)
	assert.Equal(t, StateIdle, o.CurrentState(tenantID))

	require.Len(t, runRepo.runs, 1)
	assert.Equal(t, domain.RunStatusUpToDate, runRepo.runs[0].Status)
}

func TestStartSync_ChangesAwaitReview(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{
			testRecord("tel:+14255550100", "Ada"),
			testRecord("tel:+14255550101", "Grace"),
		}, nil
	}}
	inventory := &fakeInventory{}

	o := newTestOrchestrator(directory, inventory, &recordingRunRepo{}, nil)
	review, err := o.StartSync(context.Background(), tenantID)

	require.NoError(t, err)
	assert.False(t, review.UpToDate)
	assert.Equal(t, StateCommitPending, review.State)
	assert.Equal(t, StateCommitPending, o.CurrentState(tenantID))
	// Everything starts selected.
	assert.ElementsMatch(t, []string{"tel:+14255550100", "tel:+14255550101"}, review.Selected)

	// Nothing touches the inventory until the operator commits.
	assert.Empty(t, inventory.applied)
}

func TestStartSync_RejectedWhileInFlight(t *testing.T) {
	tenantID := uuid.New()
	release := make(chan struct{})
	started := make(chan struct{})
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		close(started)
		<-release
		return nil, nil
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.StartSync(context.Background(), tenantID)
	}()

	<-started
	_, err := o.StartSync(context.Background(), tenantID)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(release)
	<-done
}

func TestStartSync_RemoteTimeout(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return nil, context.DeadlineExceeded
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantID)

	assert.ErrorIs(t, err, domain.ErrRemoteTimeout)
	assert.Equal(t, StateIdle, o.CurrentState(tenantID))
}

func TestStartSync_FailurePreservesPreviousReview(t *testing.T) {
	tenantID := uuid.New()
	var failFetch bool
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		if failFetch {
			return nil, errors.New("bridge unavailable")
		}
		return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	failFetch = true
	_, err = o.StartSync(context.Background(), tenantID)
	require.Error(t, err)

	// The earlier pending review survives the failed re-sync.
	review, err := o.Review(tenantID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitPending, review.State)
	assert.ElementsMatch(t, []string{"tel:+14255550100"}, review.Selected)
}

func TestUpdateSelection(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{
			testRecord("tel:+14255550100", "Ada"),
			testRecord("tel:+14255550101", "Grace"),
		}, nil
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	// Deselect down to one.
	require.NoError(t, o.UpdateSelection(tenantID, []string{"tel:+14255550101"}))
	review, err := o.Review(tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tel:+14255550101"}, review.Selected)

	// A line URI outside the pending diff is rejected.
	err = o.UpdateSelection(tenantID, []string{"tel:+19995550000"})
	assert.ErrorIs(t, err, domain.ErrUnknownSelection)

	// No pending review means no selection to update.
	err = o.UpdateSelection(uuid.New(), []string{"tel:+14255550101"})
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)
}

func TestCommit_AppliesOnlySelected(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{
			testRecord("tel:+14255550100", "Ada"),
			testRecord("tel:+14255550101", "Grace"),
		}, nil
	}}
	inventory := &fakeInventory{}
	runRepo := &recordingRunRepo{}
	events := &recordingPublisher{}

	o := newTestOrchestrator(directory, inventory, runRepo, events)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)
	require.NoError(t, o.UpdateSelection(tenantID, []string{"tel:+14255550100"}))

	result, err := o.Commit(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	require.Len(t, inventory.applied, 1)
	assert.Equal(t, "tel:+14255550100", inventory.applied[0].LineURI)
	assert.Equal(t, tenantID, inventory.applied[0].TenantID)
	assert.NotEqual(t, uuid.Nil, inventory.applied[0].ID)
	// Bridge records carry no timestamps; the commit stamps creation.
	assert.False(t, inventory.applied[0].CreatedAt.IsZero())

	assert.Equal(t, StateIdle, o.CurrentState(tenantID))
	_, err = o.Review(tenantID)
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)

	require.Len(t, runRepo.runs, 1)
	assert.Equal(t, domain.RunStatusCommitted, runRepo.runs[0].Status)
	assert.Equal(t, []string{SyncCommittedSubject}, events.subjects)
}

func TestCommit_FailurePreservesReview(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
	}}
	inventory := &fakeInventory{applyErr: errors.New("database unavailable")}
	runRepo := &recordingRunRepo{}
	events := &recordingPublisher{}

	o := newTestOrchestrator(directory, inventory, runRepo, events)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	_, err = o.Commit(context.Background(), tenantID)
	require.Error(t, err)

	// The review, selection included, is still there for a retry.
	review, err := o.Review(tenantID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitPending, review.State)
	assert.ElementsMatch(t, []string{"tel:+14255550100"}, review.Selected)

	require.Len(t, runRepo.runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runRepo.runs[0].Status)
	assert.Empty(t, events.subjects)

	// Retry succeeds once the inventory recovers.
	inventory.applyErr = nil
	result, err := o.Commit(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
}

func TestCommitThenResync_ReportsUpToDate(t *testing.T) {
	tenantID := uuid.New()
	remote := []*invdomain.PhoneNumberRecord{
		testRecord("tel:+14255550100", "Ada"),
		testRecord("tel:+14255550101", "Grace"),
	}
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return remote, nil
	}}
	stale := testRecord("tel:+14255550100", "Ada")
	stale.DisplayName = "A."
	inventory := &fakeInventory{local: []*invdomain.PhoneNumberRecord{stale}}

	o := newTestOrchestrator(directory, inventory, &recordingRunRepo{}, nil)
	review, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)
	summary := review.Diff.Summary()
	assert.Equal(t, 1, summary.ToAdd)
	assert.Equal(t, 1, summary.ToUpdate)

	result, err := o.Commit(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)

	// A second pass against the unchanged remote converges: committing
	// every add and update leaves nothing to classify.
	second, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, second.UpToDate)
	assert.Empty(t, second.Diff.ToAdd)
	assert.Empty(t, second.Diff.ToUpdate)
}

func TestCommit_WithoutPendingReview(t *testing.T) {
	o := newTestOrchestrator(&fakeDirectory{}, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.Commit(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)
}

func TestDismiss_PendingReview(t *testing.T) {
	tenantID := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
	}}
	inventory := &fakeInventory{}

	o := newTestOrchestrator(directory, inventory, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	require.NoError(t, o.Dismiss(tenantID))
	assert.Equal(t, StateIdle, o.CurrentState(tenantID))
	assert.Empty(t, inventory.applied)

	assert.ErrorIs(t, o.Dismiss(tenantID), domain.ErrNoPendingSync)
}

func TestDismiss_WhileSyncingDiscardsResult(t *testing.T) {
	tenantID := uuid.New()
	release := make(chan struct{})
	started := make(chan struct{})
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		close(started)
		<-release
		return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
	}}
	runRepo := &recordingRunRepo{}

	o := newTestOrchestrator(directory, &fakeInventory{}, runRepo, nil)

	type syncOutcome struct {
		review *SyncReview
		err    error
	}
	outcome := make(chan syncOutcome, 1)
	go func() {
		review, err := o.StartSync(context.Background(), tenantID)
		outcome <- syncOutcome{review, err}
	}()

	<-started
	require.NoError(t, o.Dismiss(tenantID))
	close(release)

	result := <-outcome
	require.NoError(t, result.err)
	assert.True(t, result.review.Discarded)
	assert.Equal(t, StateIdle, o.CurrentState(tenantID))

	// A discarded sync leaves no pending review and no audit entry.
	_, err := o.Review(tenantID)
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)
	assert.Empty(t, runRepo.runs)
}

func TestDismiss_DuringFailedResyncClearsOldReview(t *testing.T) {
	tenantID := uuid.New()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		calls++
		if calls == 1 {
			return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
		}
		close(started)
		<-release
		return nil, errors.New("bridge unavailable")
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := o.StartSync(context.Background(), tenantID)
		done <- err
	}()

	<-started
	require.NoError(t, o.Dismiss(tenantID))
	close(release)
	require.Error(t, <-done)

	// The dismissal wins: the failed re-sync does not resurrect the
	// review it was replacing.
	assert.Equal(t, StateIdle, o.CurrentState(tenantID))
	_, err = o.Review(tenantID)
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)
}

func TestTenantsAreIsolated(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	directory := &fakeDirectory{fetch: func(ctx context.Context, id uuid.UUID) ([]*invdomain.PhoneNumberRecord, error) {
		return []*invdomain.PhoneNumberRecord{testRecord("tel:+14255550100", "Ada")}, nil
	}}

	o := newTestOrchestrator(directory, &fakeInventory{}, &recordingRunRepo{}, nil)
	_, err := o.StartSync(context.Background(), tenantA)
	require.NoError(t, err)

	assert.Equal(t, StateCommitPending, o.CurrentState(tenantA))
	assert.Equal(t, StateIdle, o.CurrentState(tenantB))
	_, err = o.Review(tenantB)
	assert.ErrorIs(t, err, domain.ErrNoPendingSync)
}
