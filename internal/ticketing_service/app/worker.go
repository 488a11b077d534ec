package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	provapp "github.com/voiceops/teamsadmin/internal/provisioning_service/app"
	syncapp "github.com/voiceops/teamsadmin/internal/sync_service/app"
	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
	"github.com/voiceops/teamsadmin/internal/integrations/connectwise"
)

// QueueGroup shares ticket creation across scaled worker instances.
const QueueGroup = "ticketing_workers"

var ticketsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voiceadmin",
		Name:      "psa_tickets_total",
		Help:      "Total number of PSA ticket creation attempts by outcome.",
	},
	[]string{"event", "outcome"},
)

// TicketCreator opens a service ticket in the PSA system.
type TicketCreator interface {
	CreateTicket(ctx context.Context, public map[string]string, secret, summary, description string) (*connectwise.Ticket, error)
}

// CredentialSource resolves a tenant's stored PSA credential.
type CredentialSource interface {
	SecretFor(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) (map[string]string, string, error)
}

// Subscriber registers queue-group consumers on the message broker.
type Subscriber interface {
	QueueSubscribe(subject, queueGroup string, handler func(ctx context.Context, subject string, data []byte)) (*nats.Subscription, error)
}

// Worker turns committed syncs and completed bulk batches into PSA change
// tickets. Tenants without a ConnectWise credential are skipped, not failed:
// the PSA trail is opt-in per tenant.
type Worker struct {
	tickets TicketCreator
	creds   CredentialSource
	logger  *slog.Logger
}

func NewWorker(tickets TicketCreator, creds CredentialSource, logger *slog.Logger) *Worker {
	return &Worker{tickets: tickets, creds: creds, logger: logger}
}

// Start registers the worker's subscriptions. Subscriptions stay active
// until the broker connection is closed.
func (w *Worker) Start(broker Subscriber) error {
	if _, err := broker.QueueSubscribe(syncapp.SyncCommittedSubject, QueueGroup, w.handleSyncCommitted); err != nil {
		return fmt.Errorf("subscribe %s: %w", syncapp.SyncCommittedSubject, err)
	}
	if _, err := broker.QueueSubscribe(provapp.AssignmentCompletedSubject, QueueGroup, w.handleAssignmentCompleted); err != nil {
		return fmt.Errorf("subscribe %s: %w", provapp.AssignmentCompletedSubject, err)
	}
	w.logger.Info("ticketing worker subscribed",
		"subjects", []string{syncapp.SyncCommittedSubject, provapp.AssignmentCompletedSubject}, "queue_group", QueueGroup)
	return nil
}

func (w *Worker) handleSyncCommitted(ctx context.Context, subject string, data []byte) {
	var event syncapp.SyncCommittedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.ErrorContext(ctx, "malformed sync committed event", "subject", subject, "error", err)
		ticketsTotal.WithLabelValues("sync_committed", "malformed").Inc()
		return
	}

	summary := fmt.Sprintf("Teams directory sync committed (%d added, %d updated)", event.Added, event.Updated)
	description := fmt.Sprintf(
		"A directory reconciliation was committed at %s.\nRecords added: %d\nRecords updated: %d",
		event.CommittedAt.Format("2006-01-02 15:04:05 UTC"), event.Added, event.Updated)

	w.createTicket(ctx, "sync_committed", event.TenantID, summary, description)
}

func (w *Worker) handleAssignmentCompleted(ctx context.Context, subject string, data []byte) {
	var event provapp.AssignmentCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.ErrorContext(ctx, "malformed assignment completed event", "subject", subject, "error", err)
		ticketsTotal.WithLabelValues("assignment_completed", "malformed").Inc()
		return
	}

	summary := fmt.Sprintf("Bulk phone assignment completed (%d/%d succeeded)", event.Succeeded, event.Total)
	description := fmt.Sprintf(
		"Bulk assignment batch %s finished at %s.\nTotal: %d\nSucceeded: %d\nFailed: %d",
		event.BatchID, event.CompletedAt.Format("2006-01-02 15:04:05 UTC"),
		event.Total, event.Succeeded, event.Failed)

	w.createTicket(ctx, "assignment_completed", event.TenantID, summary, description)
}

func (w *Worker) createTicket(ctx context.Context, eventKind string, tenantID uuid.UUID, summary, description string) {
	public, secret, err := w.creds.SecretFor(ctx, tenantID, tenantdomain.CredentialConnectWise)
	if err != nil {
		// No PSA credential means the tenant does not want a ticket trail.
		w.logger.InfoContext(ctx, "skipping ticket, no connectwise credential",
			"tenant_id", tenantID, "event", eventKind, "reason", err)
		ticketsTotal.WithLabelValues(eventKind, "skipped").Inc()
		return
	}

	ticket, err := w.tickets.CreateTicket(ctx, public, secret, summary, description)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to create psa ticket",
			"tenant_id", tenantID, "event", eventKind, "error", err)
		ticketsTotal.WithLabelValues(eventKind, "failure").Inc()
		return
	}

	w.logger.InfoContext(ctx, "psa ticket created",
		"tenant_id", tenantID, "event", eventKind, "ticket_id", ticket.ID)
	ticketsTotal.WithLabelValues(eventKind, "success").Inc()
}
