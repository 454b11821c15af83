package session

import (
	"time"

	"github.com/lexcodex/specnav/outline"
)

// Action classifies an item activation.
type Action int

const (
	// ActionHighlight marks the node's range and moves focus there
	// without changing the selection.
	ActionHighlight Action = iota
	// ActionNavigate places the cursor at the node's start offset and
	// clears any highlight.
	ActionNavigate
)

func (a Action) String() string {
	if a == ActionNavigate {
		return "navigate"
	}
	return "highlight"
}

// clickState disambiguates single from double activation. Identity is
// the node's (start,end) key, not the pointer: the tree is rebuilt
// wholesale on every fetch, so a double click may straddle a re-fetch
// boundary when positions are unchanged.
type clickState struct {
	armed bool
	key   outline.NodeKey
	at    time.Time
}

// Resolve classifies an activation at the given instant. Navigate
// requires a prior activation of the same key strictly less than
// threshold ago; zero elapsed counts as recently clicked. The state
// re-arms with the current activation either way.
func (s *clickState) Resolve(node *outline.Node, now time.Time, threshold time.Duration) Action {
	action := ActionHighlight
	if s.armed && s.key == node.Key() && now.Sub(s.at) < threshold {
		action = ActionNavigate
	}
	s.armed = true
	s.key = node.Key()
	s.at = now
	return action
}

// Reset returns to the idle state. Callers invoke it after a Navigate
// so the next activation starts a fresh click sequence.
func (s *clickState) Reset() {
	s.armed = false
}
