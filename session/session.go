// Package session owns the per-document outline state: the cached
// outline with its fetch policy, the change-triggering policy, and
// click disambiguation. One session tracks the active editor binding;
// events for other documents are ignored.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/parser"
)

// UpdateMode selects which document-lifecycle stream triggers a
// refresh.
type UpdateMode string

const (
	// UpdateOnSave refreshes when the active document is saved.
	UpdateOnSave UpdateMode = "save"
	// UpdateOnType refreshes after edits, debounced trailing-edge.
	UpdateOnType UpdateMode = "type"
)

// Settings is the hot-reloadable configuration slice the session
// consumes.
type Settings struct {
	Mode           UpdateMode
	TypeDelay      time.Duration
	ClickThreshold time.Duration
	Languages      []string
}

// DefaultLanguages are the document kinds treated as spec files when
// the configuration does not say otherwise.
var DefaultLanguages = []string{"javascript", "typescript", "javascriptreact", "typescriptreact"}

func (s Settings) normalized() Settings {
	if s.Mode != UpdateOnType {
		s.Mode = UpdateOnSave
	}
	if s.TypeDelay < 0 {
		s.TypeDelay = 0
	}
	if s.ClickThreshold < 0 {
		s.ClickThreshold = 0
	}
	if len(s.Languages) == 0 {
		s.Languages = DefaultLanguages
	}
	return s
}

// Hooks receive the session's outward side effects. A nil hook is
// skipped. Presenters never see fetch errors; ParseFailure is the only
// user-facing error channel.
type Hooks struct {
	Refresh      func()
	ParseFailure func(err *parser.ExecError)
}

// Session is the per-document context object. All state mutation goes
// through its mutex; the external-parser fetch runs outside the lock
// and its result is discarded when the generation moved on.
type Session struct {
	parse  parser.Func
	clock  Clock
	logger *log.Logger
	hooks  Hooks

	mu       sync.Mutex
	settings Settings

	uri        string
	languageID string
	text       string
	opened     bool

	outline    *outline.Outline
	generation uint64

	debounce Timer
	clicks   clickState
}

// New builds a session around the injected parse function. A nil clock
// falls back to the system clock, a nil logger to the default logger.
func New(parse parser.Func, clock Clock, logger *log.Logger, settings Settings, hooks Hooks) *Session {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		parse:    parse,
		clock:    clock,
		logger:   logger,
		hooks:    hooks,
		settings: settings.normalized(),
	}
}

// ActivateEditor rebinds the session to a newly focused document and
// invalidates the cached outline. Switches to non-primary editors
// (diff panes, settings views) are ignored entirely, leaving the
// previous binding untouched.
func (s *Session) ActivateEditor(uri, languageID, text string, primary bool) {
	if !primary {
		return
	}
	s.mu.Lock()
	s.uri = uri
	s.languageID = languageID
	s.text = text
	s.opened = true
	s.invalidateLocked()
	s.stopDebounceLocked()
	s.clicks.Reset()
	s.mu.Unlock()
	s.notifyRefresh()
}

// Deactivate drops the document binding and cancels any pending
// debounce. Used when the active document closes.
func (s *Session) Deactivate(uri string) {
	s.mu.Lock()
	if uri != s.uri {
		s.mu.Unlock()
		return
	}
	s.opened = false
	s.text = ""
	s.invalidateLocked()
	s.stopDebounceLocked()
	s.clicks.Reset()
	s.mu.Unlock()
	s.notifyRefresh()
}

// DocumentChanged handles a content-change event. The text snapshot is
// tracked in every mode; invalidation and the trailing-edge debounce
// only apply under UpdateOnType, and an event with zero content
// changes is a no-op edit.
func (s *Session) DocumentChanged(uri, text string, changeCount int) {
	s.mu.Lock()
	if uri != s.uri || !s.opened {
		s.mu.Unlock()
		return
	}
	if changeCount == 0 {
		s.mu.Unlock()
		return
	}
	s.text = text
	if s.settings.Mode != UpdateOnType {
		s.mu.Unlock()
		return
	}
	s.invalidateLocked()
	s.stopDebounceLocked()
	s.debounce = s.clock.AfterFunc(s.settings.TypeDelay, s.notifyRefresh)
	s.mu.Unlock()
}

// DocumentSaved handles a save event for the active document.
func (s *Session) DocumentSaved(uri, text string) {
	s.mu.Lock()
	if uri != s.uri || !s.opened {
		s.mu.Unlock()
		return
	}
	if text != "" {
		s.text = text
	}
	if s.settings.Mode != UpdateOnSave {
		s.mu.Unlock()
		return
	}
	s.invalidateLocked()
	s.mu.Unlock()
	s.notifyRefresh()
}

// ApplyConfig swaps the trigger mode and thresholds atomically.
// Leaving UpdateOnType cancels a pending debounce so no stale refresh
// fires after the switch.
func (s *Session) ApplyConfig(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings = settings.normalized()
	if settings.Mode != s.settings.Mode {
		s.stopDebounceLocked()
	}
	s.settings = settings
}

// Invalidate clears the cached outline. The next read fetches fresh.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

// Children answers tree-view requests. The nil node is the root
// sentinel and may trigger a synchronous fetch; child requests read
// the already-built node. Errors never escape to presenters.
func (s *Session) Children(ctx context.Context, node *outline.Node) []*outline.Node {
	if node != nil {
		return node.Children
	}
	o := s.Outline(ctx)
	if o == nil {
		return nil
	}
	return o.Roots
}

// Outline returns the current outline, fetching it when the cache is
// empty. Nil means "no outline": no document, unsupported kind, or a
// fetch failure that has already been reported through Hooks.
func (s *Session) Outline(ctx context.Context) *outline.Outline {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		s.logger.Printf("outline requested with no active document")
		return nil
	}
	if !s.supportedLocked() {
		lang := s.languageID
		s.mu.Unlock()
		s.logger.Printf("outline skipped for unsupported document kind %q", lang)
		return nil
	}
	if s.outline != nil {
		o := s.outline
		s.mu.Unlock()
		return o
	}
	gen := s.generation
	text := s.text
	s.mu.Unlock()

	roots, err := s.parse(ctx, text)
	if err != nil {
		s.reportFetchError(err)
		return nil
	}

	s.mu.Lock()
	if s.generation != gen {
		cur := s.generation
		s.mu.Unlock()
		s.logger.Printf("discarding stale outline fetch (generation %d, now %d)", gen, cur)
		return nil
	}
	s.outline = outline.Build(roots)
	o := s.outline
	s.mu.Unlock()
	return o
}

// Activate runs click disambiguation for an item-activated gesture.
// After a Navigate the state resets, so the next activation starts a
// new click sequence.
func (s *Session) Activate(node *outline.Node) Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	action := s.clicks.Resolve(node, s.clock.Now(), s.settings.ClickThreshold)
	if action == ActionNavigate {
		s.clicks.Reset()
	}
	return action
}

// URI returns the bound document identifier, empty when idle.
func (s *Session) URI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uri
}

// Close cancels any pending debounce timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopDebounceLocked()
}

func (s *Session) invalidateLocked() {
	s.outline = nil
	s.generation++
}

func (s *Session) stopDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Session) supportedLocked() bool {
	for _, lang := range s.settings.Languages {
		if lang == s.languageID {
			return true
		}
	}
	return false
}

func (s *Session) notifyRefresh() {
	if s.hooks.Refresh != nil {
		s.hooks.Refresh()
	}
}

func (s *Session) reportFetchError(err error) {
	var execErr *parser.ExecError
	switch {
	case errors.Is(err, parser.ErrFrameworkNotDetected):
		s.logger.Printf("no outline available: %v", err)
	case errors.As(err, &execErr):
		s.logger.Printf("outline parse failure: command=%q exit=%d stderr=%q",
			execErr.Command, execErr.ExitCode, execErr.Stderr)
		if s.hooks.ParseFailure != nil {
			s.hooks.ParseFailure(execErr)
		}
	default:
		s.logger.Printf("outline fetch failed: %v", err)
	}
}
