package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

type fakeSubmitter struct {
	calls   int
	results []domain.AssignmentResult
	err     error
}

func (f *fakeSubmitter) SubmitBulkAssignment(ctx context.Context, tenantID uuid.UUID, requests []domain.AssignmentRequest) ([]domain.AssignmentResult, error) {
	f.calls++
	return f.results, f.err
}

type recordingBatchRepo struct {
	batches []*domain.AssignmentBatch
}

func (r *recordingBatchRepo) Create(ctx context.Context, batch *domain.AssignmentBatch) error {
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recordingBatchRepo) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.AssignmentBatch, error) {
	for _, b := range r.batches {
		if b.ID == id && b.TenantID == tenantID {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *recordingBatchRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.AssignmentBatch, error) {
	return r.batches, nil
}

type recordingEvents struct {
	subjects []string
}

func (p *recordingEvents) Publish(ctx context.Context, subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func newTestExecutor(teams BulkSubmitter, repo domain.AssignmentBatchRepository, events EventPublisher) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(teams, repo, events, 5*time.Second, logger)
}

func TestExecute_EmptyBatch(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := newTestExecutor(submitter, &recordingBatchRepo{}, nil)

	_, err := e.Execute(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	assert.Zero(t, submitter.calls)
}

func TestExecute_InvalidBatchRejectedBeforeSubmission(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := newTestExecutor(submitter, &recordingBatchRepo{}, nil)

	_, err := e.Execute(context.Background(), uuid.New(), []domain.AssignmentRequest{
		{UserPrincipalName: "ada@contoso.com", LineURI: "tel:+14255550100"},
		{UserPrincipalName: "grace@contoso.com", LineURI: "not-a-number"},
		{UserPrincipalName: "alan@contoso.com", LineURI: "tel:+1"},
	})

	var batchErr *domain.BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.InvalidCount)
	// A single invalid number keeps the whole batch off the wire.
	assert.Zero(t, submitter.calls)
}

func TestExecute_MatchesResultsByUPN(t *testing.T) {
	tenantID := uuid.New()
	submitter := &fakeSubmitter{
		// Results come back out of order relative to the requests.
		results: []domain.AssignmentResult{
			{UserPrincipalName: "grace@contoso.com", Success: false, Error: "number already assigned"},
			{UserPrincipalName: "ada@contoso.com", Success: true},
		},
	}
	repo := &recordingBatchRepo{}
	events := &recordingEvents{}
	e := newTestExecutor(submitter, repo, events)

	batch, err := e.Execute(context.Background(), tenantID, []domain.AssignmentRequest{
		{UserPrincipalName: "ada@contoso.com", LineURI: "tel:+14255550100"},
		{UserPrincipalName: "grace@contoso.com", LineURI: "tel:+14255550101"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	// Results follow request order, not remote order.
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "ada@contoso.com", batch.Results[0].UserPrincipalName)
	assert.True(t, batch.Results[0].Success)
	assert.Equal(t, "grace@contoso.com", batch.Results[1].UserPrincipalName)
	assert.Equal(t, "number already assigned", batch.Results[1].Error)

	require.Len(t, repo.batches, 1)
	assert.Equal(t, []string{AssignmentCompletedSubject}, events.subjects)
}

func TestExecute_UnmatchedRequestsAreIndeterminate(t *testing.T) {
	submitter := &fakeSubmitter{
		results: []domain.AssignmentResult{
			{UserPrincipalName: "ada@contoso.com", Success: true},
		},
	}
	e := newTestExecutor(submitter, &recordingBatchRepo{}, nil)

	batch, err := e.Execute(context.Background(), uuid.New(), []domain.AssignmentRequest{
		{UserPrincipalName: "ada@contoso.com", LineURI: "tel:+14255550100"},
		{UserPrincipalName: "grace@contoso.com", LineURI: "tel:+14255550101"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 2)
	assert.False(t, batch.Results[1].Success)
	assert.Contains(t, batch.Results[1].Error, "indeterminate")
}

func TestExecute_RemoteFailure(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("bridge unavailable")}
	repo := &recordingBatchRepo{}
	e := newTestExecutor(submitter, repo, nil)

	_, err := e.Execute(context.Background(), uuid.New(), []domain.AssignmentRequest{
		{UserPrincipalName: "ada@contoso.com", LineURI: "tel:+14255550100"},
	})
	require.Error(t, err)
	assert.Empty(t, repo.batches)
}

func TestEstimateProgress(t *testing.T) {
	assert.Equal(t, 0.0, EstimateProgress(0, time.Minute))
	assert.Equal(t, 0.0, EstimateProgress(10, 0))

	// Ramps with elapsed time against the per-item budget.
	halfway := EstimateProgress(10, 10*time.Second)
	assert.InDelta(t, 0.5, halfway, 0.01)

	// Holds at 95% until the remote call actually returns.
	assert.Equal(t, 0.95, EstimateProgress(10, time.Hour))
}
