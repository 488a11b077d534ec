package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceops/teamsadmin/internal/integrations/connectwise"
	provapp "github.com/voiceops/teamsadmin/internal/provisioning_service/app"
	syncapp "github.com/voiceops/teamsadmin/internal/sync_service/app"
	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
)

type stubTicketCreator struct {
	summaries    []string
	descriptions []string
	err          error
}

func (s *stubTicketCreator) CreateTicket(ctx context.Context, public map[string]string, secret, summary, description string) (*connectwise.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.summaries = append(s.summaries, summary)
	s.descriptions = append(s.descriptions, description)
	return &connectwise.Ticket{ID: 42, Summary: summary}, nil
}

type stubCredSource struct {
	err error
}

func (s *stubCredSource) SecretFor(ctx context.Context, tenantID uuid.UUID, kind tenantdomain.CredentialKind) (map[string]string, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return map[string]string{"company_id": "contoso"}, "private-key", nil
}

type recordingSubscriber struct {
	subjects []string
}

func (r *recordingSubscriber) QueueSubscribe(subject, queueGroup string, handler func(ctx context.Context, subject string, data []byte)) (*nats.Subscription, error) {
	r.subjects = append(r.subjects, subject)
	return nil, nil
}

func newTestWorker(tickets TicketCreator, creds CredentialSource) *Worker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(tickets, creds, logger)
}

func TestStart_SubscribesToBothSubjects(t *testing.T) {
	worker := newTestWorker(&stubTicketCreator{}, &stubCredSource{})
	broker := &recordingSubscriber{}

	require.NoError(t, worker.Start(broker))
	assert.ElementsMatch(t, []string{syncapp.SyncCommittedSubject, provapp.AssignmentCompletedSubject}, broker.subjects)
}

func TestHandleSyncCommitted_CreatesTicket(t *testing.T) {
	tickets := &stubTicketCreator{}
	worker := newTestWorker(tickets, &stubCredSource{})

	event := syncapp.SyncCommittedEvent{
		TenantID:    uuid.New(),
		Added:       3,
		Updated:     2,
		CommittedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	worker.handleSyncCommitted(context.Background(), syncapp.SyncCommittedSubject, data)

	require.Len(t, tickets.summaries, 1)
	assert.Contains(t, tickets.summaries[0], "3 added")
	assert.Contains(t, tickets.summaries[0], "2 updated")
}

func TestHandleAssignmentCompleted_CreatesTicket(t *testing.T) {
	tickets := &stubTicketCreator{}
	worker := newTestWorker(tickets, &stubCredSource{})

	event := provapp.AssignmentCompletedEvent{
		TenantID:    uuid.New(),
		BatchID:     uuid.New(),
		Total:       10,
		Succeeded:   8,
		Failed:      2,
		CompletedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	worker.handleAssignmentCompleted(context.Background(), provapp.AssignmentCompletedSubject, data)

	require.Len(t, tickets.summaries, 1)
	assert.Contains(t, tickets.summaries[0], "8/10 succeeded")
	assert.Contains(t, tickets.descriptions[0], event.BatchID.String())
}

func TestTicket_SkippedWithoutCredential(t *testing.T) {
	tickets := &stubTicketCreator{}
	worker := newTestWorker(tickets, &stubCredSource{err: tenantdomain.ErrNotFound})

	data, err := json.Marshal(syncapp.SyncCommittedEvent{TenantID: uuid.New()})
	require.NoError(t, err)
	worker.handleSyncCommitted(context.Background(), syncapp.SyncCommittedSubject, data)

	assert.Empty(t, tickets.summaries)
}

func TestMalformedEventIsDropped(t *testing.T) {
	tickets := &stubTicketCreator{}
	worker := newTestWorker(tickets, &stubCredSource{})

	worker.handleSyncCommitted(context.Background(), syncapp.SyncCommittedSubject, []byte("{not json"))
	worker.handleAssignmentCompleted(context.Background(), provapp.AssignmentCompletedSubject, []byte("{not json"))

	assert.Empty(t, tickets.summaries)
}

func TestTicketCreationFailureIsNonFatal(t *testing.T) {
	tickets := &stubTicketCreator{err: errors.New("psa unavailable")}
	worker := newTestWorker(tickets, &stubCredSource{})

	data, err := json.Marshal(syncapp.SyncCommittedEvent{TenantID: uuid.New()})
	require.NoError(t, err)

	// The handler logs and moves on; the reconciliation already happened.
	worker.handleSyncCommitted(context.Background(), syncapp.SyncCommittedSubject, data)
	assert.Empty(t, tickets.summaries)
}
