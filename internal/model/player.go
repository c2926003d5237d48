package model

import "strings"

// PlayerID is the canonical player identity string. It is opaque, stable
// across reconnects, and always compared in trimmed form.
type PlayerID string

// CanonicalID normalizes a raw identity string to a PlayerID
func CanonicalID(raw string) PlayerID {
	return PlayerID(strings.TrimSpace(raw))
}

// CanonicalIDFrom picks the first non-empty of several possible identity
// fields and normalizes it. Upstream clients have historically sent the
// identity under playerId, _id, or id; core logic only ever sees the
// canonical form.
func CanonicalIDFrom(candidates ...string) PlayerID {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return PlayerID(trimmed)
		}
	}
	return ""
}

// Player is a participant in a room's turn rotation
type Player struct {
	ID       PlayerID `json:"playerId"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
	Streak   int      `json:"streak"`
}
