package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexcodex/specnav/outline"
)

func TestClickResolveSameNodeWithinThreshold(t *testing.T) {
	var s clickState
	node := &outline.Node{Start: 5, End: 20}
	t0 := time.Unix(1000, 0)
	threshold := 500 * time.Millisecond

	assert.Equal(t, ActionHighlight, s.Resolve(node, t0, threshold))
	assert.Equal(t, ActionNavigate, s.Resolve(node, t0.Add(200*time.Millisecond), threshold))
}

func TestClickResolveSameNodeAfterThreshold(t *testing.T) {
	var s clickState
	node := &outline.Node{Start: 5, End: 20}
	t0 := time.Unix(1000, 0)
	threshold := 500 * time.Millisecond

	s.Resolve(node, t0, threshold)
	assert.Equal(t, ActionHighlight, s.Resolve(node, t0.Add(threshold), threshold),
		"boundary is strictly-less")
}

func TestClickResolveZeroElapsedNavigates(t *testing.T) {
	var s clickState
	node := &outline.Node{Start: 5, End: 20}
	t0 := time.Unix(1000, 0)

	s.Resolve(node, t0, 500*time.Millisecond)
	assert.Equal(t, ActionNavigate, s.Resolve(node, t0, 500*time.Millisecond))
}

func TestClickResolveDifferentNodeHighlights(t *testing.T) {
	var s clickState
	first := &outline.Node{Start: 5, End: 20}
	second := &outline.Node{Start: 30, End: 40}
	t0 := time.Unix(1000, 0)

	s.Resolve(first, t0, time.Second)
	assert.Equal(t, ActionHighlight, s.Resolve(second, t0, time.Second))
}

func TestClickResolveKeysOnPositionNotIdentity(t *testing.T) {
	var s clickState
	before := &outline.Node{Start: 5, End: 20}
	// Same position, distinct object: a re-fetch rebuilt the tree
	// between the two clicks.
	after := &outline.Node{Start: 5, End: 20}
	t0 := time.Unix(1000, 0)

	s.Resolve(before, t0, time.Second)
	assert.Equal(t, ActionNavigate, s.Resolve(after, t0.Add(100*time.Millisecond), time.Second))
}
