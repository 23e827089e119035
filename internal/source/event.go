package source

import (
	"encoding/json"
	"fmt"

	"github.com/calegria/depotscan/internal/scm"
)

// TriggerEvent is an inbound change notification from the host's event
// collaborator (a webhook-style trigger). Its payload embeds a single
// (head, revision) pair; during a pass it overrides the revision of
// exactly the heads whose name matches, while every other head still
// gets a freshly resolved revision. This avoids a full backend re-scan
// on every event without letting the rest of the head set go stale.
type TriggerEvent struct {
	Payload json.RawMessage
}

// eventPayload is the wire shape of a trigger payload.
type eventPayload struct {
	Branch string `json:"branch"`
	Path   string `json:"path"`
	Change int64  `json:"change"`
}

// ParsePayload decodes a trigger payload into the revision it embeds.
func ParsePayload(payload json.RawMessage) (scm.Revision, error) {
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return scm.Revision{}, fmt.Errorf("decode trigger payload: %w", err)
	}
	if p.Branch == "" {
		return scm.Revision{}, fmt.Errorf("trigger payload missing branch")
	}

	head := scm.NewHead(p.Branch, p.Path)
	return scm.NewRevision(head, scm.NewChangeRef(p.Change)), nil
}

// Revision decodes the event's payload.
func (e *TriggerEvent) Revision() (scm.Revision, error) {
	return ParsePayload(e.Payload)
}
