package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

func record(lineURI, displayName, upn, policy string) *invdomain.PhoneNumberRecord {
	return &invdomain.PhoneNumberRecord{
		ID:                uuid.New(),
		LineURI:           lineURI,
		DisplayName:       displayName,
		UserPrincipalName: upn,
		RoutingPolicy:     policy,
	}
}

func TestClassify_Partition(t *testing.T) {
	remote := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "Ada Lovelace", "ada@contoso.com", "US-East"),
		record("tel:+14255550101", "Grace Hopper", "grace@contoso.com", "US-East"),
		record("tel:+14255550102", "Alan Turing", "alan@contoso.com", "US-West"),
	}
	local := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "Ada Lovelace", "ada@contoso.com", "US-East"),      // unchanged
		record("tel:+14255550101", "G. Hopper", "grace@contoso.com", "US-East"),       // display name differs
		record("tel:+14255550199", "Orphaned Local", "orphan@contoso.com", "US-East"), // no remote counterpart
	}

	diff := Classify(remote, local)
	summary := diff.Summary()

	// Every remote record lands in exactly one set.
	assert.Equal(t, summary.TeamsTotal, summary.ToAdd+summary.ToUpdate+summary.Unchanged)
	assert.Equal(t, 3, summary.TeamsTotal)
	assert.Equal(t, 3, summary.LocalTotal)

	require.Len(t, diff.ToAdd, 1)
	assert.Equal(t, "tel:+14255550102", diff.ToAdd[0].LineURI)
	assert.Equal(t, ChangeAdd, diff.ToAdd[0].Kind)
	assert.Empty(t, diff.ToAdd[0].Deltas)

	require.Len(t, diff.ToUpdate, 1)
	assert.Equal(t, "tel:+14255550101", diff.ToUpdate[0].LineURI)
	assert.Equal(t, ChangeUpdate, diff.ToUpdate[0].Kind)

	require.Len(t, diff.Unchanged, 1)
	assert.Equal(t, "tel:+14255550100", diff.Unchanged[0])

	// Local-only records never surface; the remote directory is
	// authoritative for presence.
	for _, change := range diff.ToAdd {
		assert.NotEqual(t, "tel:+14255550199", change.LineURI)
	}
}

func TestClassify_UpdateDeltas(t *testing.T) {
	remote := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "New Name", "new@contoso.com", "US-West"),
	}
	local := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "Old Name", "old@contoso.com", "US-East"),
	}

	diff := Classify(remote, local)
	require.Len(t, diff.ToUpdate, 1)

	deltas := diff.ToUpdate[0].Deltas
	require.Len(t, deltas, 3)
	assert.Equal(t, FieldDelta{Field: "display_name", Local: "Old Name", Remote: "New Name"}, deltas[0])
	assert.Equal(t, FieldDelta{Field: "user_principal_name", Local: "old@contoso.com", Remote: "new@contoso.com"}, deltas[1])
	assert.Equal(t, FieldDelta{Field: "routing_policy", Local: "US-East", Remote: "US-West"}, deltas[2])
}

func TestClassify_SingleFieldDelta(t *testing.T) {
	remote := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "Same", "same@contoso.com", "US-West"),
	}
	local := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "Same", "same@contoso.com", "US-East"),
	}

	diff := Classify(remote, local)
	require.Len(t, diff.ToUpdate, 1)
	require.Len(t, diff.ToUpdate[0].Deltas, 1)
	assert.Equal(t, "routing_policy", diff.ToUpdate[0].Deltas[0].Field)
}

func TestClassify_UntrackedFieldsIgnored(t *testing.T) {
	remote := record("tel:+14255550100", "Same", "same@contoso.com", "US-East")
	local := record("tel:+14255550100", "Same", "same@contoso.com", "US-East")
	local.Carrier = "Carrier A"
	local.Location = "Seattle"

	diff := Classify([]*invdomain.PhoneNumberRecord{remote}, []*invdomain.PhoneNumberRecord{local})
	assert.Empty(t, diff.ToUpdate)
	assert.Len(t, diff.Unchanged, 1)
	assert.False(t, diff.HasChanges())
}

func TestClassify_EmptyInputs(t *testing.T) {
	diff := Classify(nil, nil)
	assert.Equal(t, 0, diff.TeamsTotal)
	assert.Equal(t, 0, diff.LocalTotal)
	assert.False(t, diff.HasChanges())

	remote := []*invdomain.PhoneNumberRecord{record("tel:+14255550100", "A", "a@contoso.com", "P")}
	diff = Classify(remote, nil)
	assert.Len(t, diff.ToAdd, 1)
	assert.True(t, diff.HasChanges())

	local := []*invdomain.PhoneNumberRecord{record("tel:+14255550100", "A", "a@contoso.com", "P")}
	diff = Classify(nil, local)
	assert.False(t, diff.HasChanges())
	assert.Equal(t, 1, diff.LocalTotal)
}

func TestClassify_Deterministic(t *testing.T) {
	remote := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550100", "A", "a@contoso.com", "P"),
		record("tel:+14255550101", "B", "b@contoso.com", "P"),
	}
	local := []*invdomain.PhoneNumberRecord{
		record("tel:+14255550101", "B old", "b@contoso.com", "P"),
	}

	first := Classify(remote, local)
	second := Classify(remote, local)
	assert.Equal(t, first.Summary(), second.Summary())
	require.Len(t, second.ToAdd, 1)
	assert.Equal(t, first.ToAdd[0].LineURI, second.ToAdd[0].LineURI)
}
