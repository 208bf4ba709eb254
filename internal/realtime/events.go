package realtime

import "encoding/json"

// Client-initiated event names.
const (
	eventJoinDocument   = "joinDocument"
	eventLeaveDocument  = "leaveDocument"
	eventJoinedDocument = "joinedDocument"
	eventUserCursor     = "user.cursor"
)

// envelope is the wire format for every frame in both directions.
type envelope struct {
	Event      string          `json:"event"`
	DocumentID string          `json:"documentId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// cursorPayload is the ephemeral presence signal relayed between members of
// a channel. It is never persisted.
type cursorPayload struct {
	UserID    string          `json:"userId"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

func encodeEvent(documentID, event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		Event:      event,
		DocumentID: documentID,
		Payload:    raw,
	})
}
