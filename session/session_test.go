package session

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/parser"
)

const testURI = "file:///spec/calc.spec.js"

func countingParser(calls *int32, roots func() []*outline.Node) parser.Func {
	return func(ctx context.Context, source string) ([]*outline.Node, error) {
		atomic.AddInt32(calls, 1)
		return roots(), nil
	}
}

func sampleRoots() []*outline.Node {
	return []*outline.Node{
		{
			Name: "describe", Text: "calc", Start: 0, End: 100,
			Children: []*outline.Node{
				{Name: "it", Text: "adds", Start: 10, End: 40, Leaf: true},
				{Name: "it", Text: "subtracts", Start: 50, End: 90, Leaf: true},
			},
		},
	}
}

func newTestSession(t *testing.T, parse parser.Func, settings Settings, hooks Hooks, clock Clock) *Session {
	t.Helper()
	s := New(parse, clock, log.New(io.Discard, "", 0), settings, hooks)
	t.Cleanup(s.Close)
	return s
}

func TestChildrenFetchesOnceAndCaches(t *testing.T) {
	var calls int32
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, Hooks{}, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)

	roots := s.Children(context.Background(), nil)
	require.Len(t, roots, 1)
	children := s.Children(context.Background(), roots[0])
	assert.Len(t, children, 2)

	s.Children(context.Background(), nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "cached outline must not re-fetch")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var calls int32
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, Hooks{}, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)

	s.Children(context.Background(), nil)
	s.Invalidate()
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchFailureIsNotCached(t *testing.T) {
	var calls int32
	var failures int32
	parse := func(ctx context.Context, source string) ([]*outline.Node, error) {
		atomic.AddInt32(&calls, 1)
		return nil, &parser.ExecError{Command: "specparse", ExitCode: 1, Stderr: "bad input"}
	}
	hooks := Hooks{ParseFailure: func(err *parser.ExecError) { atomic.AddInt32(&failures, 1) }}
	s := newTestSession(t, parse, Settings{}, hooks, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)

	assert.Nil(t, s.Children(context.Background(), nil))
	assert.Nil(t, s.Children(context.Background(), nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "failures retry on the next read")
	assert.Equal(t, int32(2), atomic.LoadInt32(&failures))
}

func TestFrameworkNotDetectedIsQuiet(t *testing.T) {
	var failures int32
	parse := func(ctx context.Context, source string) ([]*outline.Node, error) {
		return nil, parser.ErrFrameworkNotDetected
	}
	hooks := Hooks{ParseFailure: func(err *parser.ExecError) { atomic.AddInt32(&failures, 1) }}
	s := newTestSession(t, parse, Settings{}, hooks, nil)
	s.ActivateEditor(testURI, "javascript", "console.log(1)", true)

	assert.Nil(t, s.Children(context.Background(), nil))
	assert.Equal(t, int32(0), atomic.LoadInt32(&failures),
		"framework-not-detected is no outline, not an error notification")
}

func TestUnsupportedDocumentKindIsEmpty(t *testing.T) {
	var calls int32
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, Hooks{}, nil)
	s.ActivateEditor(testURI, "markdown", "# notes", true)

	assert.Nil(t, s.Children(context.Background(), nil))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "unsupported kinds never invoke the parser")
}

func TestNoActiveDocumentIsEmpty(t *testing.T) {
	var calls int32
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, Hooks{}, nil)
	assert.Nil(t, s.Children(context.Background(), nil))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	var s *Session
	var calls int32
	parse := func(ctx context.Context, source string) ([]*outline.Node, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// An invalidating event arrives while this fetch is in
			// flight; the generation check must discard the result.
			s.Invalidate()
		}
		return sampleRoots(), nil
	}
	s = newTestSession(t, parse, Settings{}, Hooks{}, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)

	assert.Nil(t, s.Outline(context.Background()), "superseded fetch must not populate the cache")
	o := s.Outline(context.Background())
	require.NotNil(t, o)
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDebounceCoalescesEdits(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	var refreshes int32
	var calls int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots),
		Settings{Mode: UpdateOnType, TypeDelay: 100 * time.Millisecond}, hooks, clock)
	s.ActivateEditor(testURI, "javascript", "v0", true)
	atomic.StoreInt32(&refreshes, 0)

	for i := 0; i < 5; i++ {
		s.DocumentChanged(testURI, "edit", 1)
		clock.Advance(40 * time.Millisecond)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes), "edits within the delay keep superseding the timer")

	clock.Advance(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes), "one refresh, delay after the last edit")
}

func TestZeroChangeEditIsIgnored(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	var refreshes int32
	var calls int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots),
		Settings{Mode: UpdateOnType, TypeDelay: 50 * time.Millisecond}, hooks, clock)
	s.ActivateEditor(testURI, "javascript", "v0", true)
	s.Children(context.Background(), nil)
	atomic.StoreInt32(&refreshes, 0)

	s.DocumentChanged(testURI, "v0", 0)
	clock.Advance(time.Second)

	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes))
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no-op edit must not invalidate")
}

func TestEditsInSaveModeDoNotInvalidate(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	var refreshes int32
	var calls int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots),
		Settings{Mode: UpdateOnSave}, hooks, clock)
	s.ActivateEditor(testURI, "javascript", "v0", true)
	s.Children(context.Background(), nil)
	atomic.StoreInt32(&refreshes, 0)

	s.DocumentChanged(testURI, "v1", 1)
	clock.Advance(time.Second)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes))
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	s.DocumentSaved(testURI, "v1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "save invalidates and the next read re-fetches")
}

func TestModeSwitchCancelsPendingDebounce(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	var refreshes int32
	var calls int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots),
		Settings{Mode: UpdateOnType, TypeDelay: 100 * time.Millisecond}, hooks, clock)
	s.ActivateEditor(testURI, "javascript", "v0", true)
	atomic.StoreInt32(&refreshes, 0)

	s.DocumentChanged(testURI, "v1", 1)
	s.ApplyConfig(Settings{Mode: UpdateOnSave})
	clock.Advance(time.Second)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes), "pending debounce dies with the mode switch")

	s.DocumentSaved(testURI, "v1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestEventsForOtherDocumentsAreIgnored(t *testing.T) {
	clock := NewVirtualClock(time.Unix(0, 0))
	var refreshes int32
	var calls int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots),
		Settings{Mode: UpdateOnType, TypeDelay: 10 * time.Millisecond}, hooks, clock)
	s.ActivateEditor(testURI, "javascript", "v0", true)
	atomic.StoreInt32(&refreshes, 0)

	s.DocumentChanged("file:///other.spec.js", "x", 1)
	s.DocumentSaved("file:///other.spec.js", "x")
	clock.Advance(time.Second)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes))
}

func TestNonPrimaryEditorSwitchIsIgnored(t *testing.T) {
	var calls int32
	var refreshes int32
	hooks := Hooks{Refresh: func() { atomic.AddInt32(&refreshes, 1) }}
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, hooks, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)
	s.Children(context.Background(), nil)
	atomic.StoreInt32(&refreshes, 0)

	s.ActivateEditor("file:///diff-pane", "javascript", "", false)
	assert.Equal(t, testURI, s.URI(), "non-primary switch leaves the binding untouched")
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes))
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "outline cache survives the ignored switch")
}

func TestPrimaryEditorSwitchInvalidates(t *testing.T) {
	var calls int32
	s := newTestSession(t, countingParser(&calls, sampleRoots), Settings{}, Hooks{}, nil)
	s.ActivateEditor(testURI, "javascript", "src", true)
	s.Children(context.Background(), nil)

	s.ActivateEditor("file:///spec/other.spec.js", "javascript", "src2", true)
	s.Children(context.Background(), nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestActivateResetsAfterNavigate(t *testing.T) {
	clock := NewVirtualClock(time.Unix(50, 0))
	s := newTestSession(t, countingParser(new(int32), sampleRoots),
		Settings{ClickThreshold: 500 * time.Millisecond}, Hooks{}, clock)
	s.ActivateEditor(testURI, "javascript", "src", true)
	node := &outline.Node{Start: 3, End: 9}

	assert.Equal(t, ActionHighlight, s.Activate(node))
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionNavigate, s.Activate(node))
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionHighlight, s.Activate(node), "navigation resets the click sequence")
}
