package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

var assignmentItemsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voiceadmin",
		Name:      "assignment_items_total",
		Help:      "Total number of bulk assignment items by outcome.",
	},
	[]string{"outcome"},
)

// AssignmentCompletedSubject is the NATS subject for finished bulk batches.
const AssignmentCompletedSubject = "voiceadmin.assignment.completed"

// AssignmentCompletedEvent is published after a bulk batch finishes.
type AssignmentCompletedEvent struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

// BulkSubmitter pushes assignments to the remote directory as one call.
type BulkSubmitter interface {
	SubmitBulkAssignment(ctx context.Context, tenantID uuid.UUID, requests []domain.AssignmentRequest) ([]domain.AssignmentResult, error)
}

// EventPublisher publishes domain events. May be nil.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Executor validates and submits bulk phone-number assignments.
//
// The remote operation is a single blocking call; any progress shown while
// it runs is an elapsed-time estimate, never authoritative per-item
// completion (see EstimateProgress).
type Executor struct {
	teams     BulkSubmitter
	batchRepo domain.AssignmentBatchRepository
	events    EventPublisher
	timeout   time.Duration
	logger    *slog.Logger
}

func NewExecutor(
	teams BulkSubmitter,
	batchRepo domain.AssignmentBatchRepository,
	events EventPublisher,
	remoteTimeout time.Duration,
	logger *slog.Logger,
) *Executor {
	if remoteTimeout <= 0 {
		remoteTimeout = 45 * time.Second
	}
	return &Executor{
		teams:     teams,
		batchRepo: batchRepo,
		events:    events,
		timeout:   remoteTimeout,
		logger:    logger,
	}
}

// Execute validates every request up front and, only when the whole batch
// is valid, submits it as one remote operation. A single invalid number
// rejects the batch before any network call with the invalid count.
// Per-item results are matched back by user principal name; requests the
// remote system returned no result for become indeterminate failures.
func (e *Executor) Execute(ctx context.Context, tenantID uuid.UUID, requests []domain.AssignmentRequest) (*domain.AssignmentBatch, error) {
	if len(requests) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if err := domain.ValidateBatch(requests); err != nil {
		e.logger.WarnContext(ctx, "bulk assignment batch rejected by validation", "tenant_id", tenantID, "error", err)
		return nil, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	submittedAt := time.Now().UTC()
	remoteResults, err := e.teams.SubmitBulkAssignment(submitCtx, tenantID, requests)
	if err != nil {
		e.logger.ErrorContext(ctx, "bulk assignment submission failed", "tenant_id", tenantID, "count", len(requests), "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("bulk assignment timed out: %w", err)
		}
		return nil, fmt.Errorf("submit bulk assignment: %w", err)
	}

	resultByUPN := make(map[string]domain.AssignmentResult, len(remoteResults))
	for _, result := range remoteResults {
		resultByUPN[result.UserPrincipalName] = result
	}

	batch := &domain.AssignmentBatch{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SubmittedAt: submittedAt,
		Total:       len(requests),
		Results:     make([]domain.AssignmentResult, 0, len(requests)),
	}
	for _, req := range requests {
		result, found := resultByUPN[req.UserPrincipalName]
		if !found {
			// The remote system returned fewer results than requested;
			// unmatched requests are indeterminate, not silently dropped.
			result = domain.AssignmentResult{
				UserPrincipalName: req.UserPrincipalName,
				Success:           false,
				Error:             "no result returned by remote system; outcome indeterminate",
			}
		}
		if result.Success {
			batch.Succeeded++
			assignmentItemsTotal.WithLabelValues("success").Inc()
		} else {
			batch.Failed++
			assignmentItemsTotal.WithLabelValues("failure").Inc()
		}
		batch.Results = append(batch.Results, result)
	}

	if e.batchRepo != nil {
		if err := e.batchRepo.Create(ctx, batch); err != nil {
			// Audit history is best-effort; the assignments were already
			// pushed to the remote directory.
			e.logger.ErrorContext(ctx, "failed to persist assignment batch", "tenant_id", tenantID, "batch_id", batch.ID, "error", err)
		}
	}
	e.publishCompleted(ctx, batch)

	e.logger.InfoContext(ctx, "bulk assignment completed",
		"tenant_id", tenantID, "batch_id", batch.ID, "total", batch.Total, "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch, nil
}

// GeneratePreview builds the sequential numbers a bulk form would submit,
// without touching the remote system.
func (e *Executor) GeneratePreview(prefix string, start, count, padWidth int) ([]string, error) {
	return domain.GenerateSequential(prefix, start, count, padWidth)
}

// ListBatches returns the tenant's bulk assignment audit history.
func (e *Executor) ListBatches(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.AssignmentBatch, error) {
	return e.batchRepo.ListByTenant(ctx, tenantID, offset, limit)
}

// GetBatch returns one persisted batch with its per-item results.
func (e *Executor) GetBatch(ctx context.Context, id, tenantID uuid.UUID) (*domain.AssignmentBatch, error) {
	return e.batchRepo.GetByID(ctx, id, tenantID)
}

// EstimateProgress maps elapsed time to a display percentage for an
// in-flight batch. The remote call is opaque, so this is a UX estimate
// only: it ramps with elapsed time against a per-item budget and holds at
// 95% until the call actually returns.
func EstimateProgress(itemCount int, elapsed time.Duration) float64 {
	if itemCount <= 0 {
		return 0
	}
	const perItemBudget = 2 * time.Second
	expected := time.Duration(itemCount) * perItemBudget
	ratio := float64(elapsed) / float64(expected)
	if ratio > 0.95 {
		return 0.95
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func (e *Executor) publishCompleted(ctx context.Context, batch *domain.AssignmentBatch) {
	if e.events == nil {
		return
	}
	event := AssignmentCompletedEvent{
		TenantID:    batch.TenantID,
		BatchID:     batch.ID,
		Total:       batch.Total,
		Succeeded:   batch.Succeeded,
		Failed:      batch.Failed,
		CompletedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to marshal assignment completed event", "error", err)
		return
	}
	if err := e.events.Publish(ctx, AssignmentCompletedSubject, data); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish assignment completed event", "batch_id", batch.ID, "error", err)
	}
}
