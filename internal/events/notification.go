package events

// Notification event kinds carried on channel topics.
const (
	KindRequestSubmitted   = "request_submitted"
	KindRequestDecided     = "request_decided"
	KindRequestResubmitted = "request_resubmitted"
	KindRequestCheckedIn   = "request_checked_in"
	KindEscalation         = "escalation"
	KindSystemHealth       = "system_health"
	KindMessageEdit        = "message_edit"
)

// MessageAction is one interactive control attached to a channel message.
// Only the designated action channel carries them.
type MessageAction struct {
	Label     string `json:"label"`
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
}

// ChannelMessage is the payload published per configured channel.
type ChannelMessage struct {
	Channel   string          `json:"channel"`
	Kind      string          `json:"kind"`
	RequestID string          `json:"request_id,omitempty"`
	Text      string          `json:"text"`
	Actions   []MessageAction `json:"actions,omitempty"`
	EditRef   string          `json:"edit_ref,omitempty"`
}
