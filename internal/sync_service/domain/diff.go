package domain

import (
	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
)

// ChangeKind classifies one remote record relative to the local inventory.
type ChangeKind string

const (
	ChangeAdd       ChangeKind = "add"
	ChangeUpdate    ChangeKind = "update"
	ChangeUnchanged ChangeKind = "unchanged"
)

// FieldDelta is one tracked field that differs between the local inventory
// and the remote directory.
type FieldDelta struct {
	Field  string `json:"field"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// Change is one remote record together with its classification. Deltas is
// populated only for updates.
type Change struct {
	LineURI string                       `json:"line_uri"`
	Kind    ChangeKind                   `json:"kind"`
	Remote  *invdomain.PhoneNumberRecord `json:"remote"`
	Deltas  []FieldDelta                 `json:"deltas,omitempty"`
}

// DiffResult partitions the remote directory snapshot against the local
// inventory. Every remote record lands in exactly one of the three sets.
// Local records with no remote counterpart are not surfaced; the remote
// directory is authoritative for presence.
type DiffResult struct {
	ToAdd     []Change `json:"to_add"`
	ToUpdate  []Change `json:"to_update"`
	Unchanged []string `json:"unchanged"`

	TeamsTotal int `json:"teams_total"`
	LocalTotal int `json:"local_total"`
}

// Summary holds the derived counts. ToAdd+ToUpdate+Unchanged always equals
// TeamsTotal.
type Summary struct {
	TeamsTotal int `json:"teams_total"`
	LocalTotal int `json:"local_total"`
	ToAdd      int `json:"to_add"`
	ToUpdate   int `json:"to_update"`
	Unchanged  int `json:"unchanged"`
}

// Summary derives the counts from the partition; they are never stored
// independently.
func (d *DiffResult) Summary() Summary {
	return Summary{
		TeamsTotal: d.TeamsTotal,
		LocalTotal: d.LocalTotal,
		ToAdd:      len(d.ToAdd),
		ToUpdate:   len(d.ToUpdate),
		Unchanged:  len(d.Unchanged),
	}
}

// HasChanges reports whether the operator has anything to review.
func (d *DiffResult) HasChanges() bool {
	return len(d.ToAdd) > 0 || len(d.ToUpdate) > 0
}

// trackedFields are the attributes compared pairwise for update detection,
// in the order deltas are reported.
var trackedFields = []struct {
	name  string
	value func(*invdomain.PhoneNumberRecord) string
}{
	{"display_name", func(r *invdomain.PhoneNumberRecord) string { return r.DisplayName }},
	{"user_principal_name", func(r *invdomain.PhoneNumberRecord) string { return r.UserPrincipalName }},
	{"routing_policy", func(r *invdomain.PhoneNumberRecord) string { return r.RoutingPolicy }},
}

// Classify compares a remote directory snapshot against the local inventory,
// keyed by line URI. Remote records absent locally become adds; records
// whose tracked fields differ become updates with one delta per differing
// field; the rest are unchanged. Classify is pure and deterministic.
func Classify(remote, local []*invdomain.PhoneNumberRecord) *DiffResult {
	localByURI := make(map[string]*invdomain.PhoneNumberRecord, len(local))
	for _, rec := range local {
		localByURI[rec.LineURI] = rec
	}

	result := &DiffResult{
		TeamsTotal: len(remote),
		LocalTotal: len(local),
	}
	for _, remoteRec := range remote {
		localRec, exists := localByURI[remoteRec.LineURI]
		if !exists {
			result.ToAdd = append(result.ToAdd, Change{
				LineURI: remoteRec.LineURI,
				Kind:    ChangeAdd,
				Remote:  remoteRec,
			})
			continue
		}

		var deltas []FieldDelta
		for _, field := range trackedFields {
			localValue := field.value(localRec)
			remoteValue := field.value(remoteRec)
			if localValue != remoteValue {
				deltas = append(deltas, FieldDelta{Field: field.name, Local: localValue, Remote: remoteValue})
			}
		}
		if len(deltas) > 0 {
			result.ToUpdate = append(result.ToUpdate, Change{
				LineURI: remoteRec.LineURI,
				Kind:    ChangeUpdate,
				Remote:  remoteRec,
				Deltas:  deltas,
			})
		} else {
			result.Unchanged = append(result.Unchanged, remoteRec.LineURI)
		}
	}
	return result
}
