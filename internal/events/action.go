package events

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ActionEvent is an inbound approval callback: a channel user pressed an
// approve/reject control on a previously sent message.
type ActionEvent struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id"`
	ActorKey  string `json:"actor_key"`
	Reason    string `json:"reason,omitempty"`
}
