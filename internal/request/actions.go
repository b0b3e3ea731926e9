package request

import "strings"

// ResolveActor maps an action-channel actor key to a display name. Unknown
// or empty keys resolve to the fallback so a malformed callback never blocks
// the decision itself.
func ResolveActor(names map[string]string, fallback, actorKey string) string {
	if name, ok := names[strings.TrimSpace(actorKey)]; ok {
		return name
	}
	return fallback
}
