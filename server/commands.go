package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/session"
)

// commandActivate is the executeCommand id for item activation. The
// client sends it on every outline click; the server disambiguates
// single from double and answers with the side effect to apply.
const commandActivate = "specnav.activate"

// ActivateParams identifies the clicked node by its positional key.
type ActivateParams struct {
	URI   string `json:"uri"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ActivateResult tells the client which gesture the click resolved to.
// Highlight: decorate Range and reveal it without moving the
// selection. Navigate: clear the highlight, place the cursor at the
// start position, and focus the editor.
type ActivateResult struct {
	Action string          `json:"action"`
	Range  *protocol.Range `json:"range,omitempty"`
	Cursor *protocol.Position `json:"cursor,omitempty"`
}

func (s *Server) executeCommand(ctx context.Context, params protocol.ExecuteCommandParams) (interface{}, error) {
	if params.Command != commandActivate {
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
	if len(params.Arguments) == 0 {
		return nil, fmt.Errorf("%s: missing arguments", commandActivate)
	}
	raw, err := json.Marshal(params.Arguments[0])
	if err != nil {
		return nil, err
	}
	var args ActivateParams
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%s: %w", commandActivate, err)
	}
	return s.activate(ctx, args), nil
}

func (s *Server) activate(ctx context.Context, args ActivateParams) *ActivateResult {
	node := s.lookupNode(ctx, args)
	index := newLineIndex(s.documentText(args.URI))
	action := s.session.Activate(node)

	result := &ActivateResult{Action: action.String()}
	switch action {
	case session.ActionNavigate:
		cursor := index.position(node.Start)
		result.Cursor = &cursor
	default:
		rng := index.rangeFor(node.Start, node.End)
		result.Range = &rng
	}
	return result
}

// lookupNode resolves the clicked key against the current outline so
// highlight side effects track any freshly rebuilt node. An unknown
// key still participates in click tracking with its own positions.
func (s *Server) lookupNode(ctx context.Context, args ActivateParams) *outline.Node {
	key := outline.NodeKey{Start: args.Start, End: args.End}
	if o := s.session.Outline(ctx); o != nil {
		for _, node := range o.Flat {
			if node.Key() == key {
				return node
			}
		}
	}
	return &outline.Node{Start: args.Start, End: args.End}
}

// configurationParams is the workspace/didChangeConfiguration payload.
// All three values are hot-reloadable without restarting the server.
type configurationParams struct {
	Settings configSettings `json:"settings"`
}

type configSettings struct {
	UpdateOn               string `json:"updateOn"`
	UpdateOnTypeDelayMs    int    `json:"updateOnTypeDelayMs"`
	DoubleClickThresholdMs int    `json:"doubleClickThresholdMs"`
	Languages              []string `json:"languages"`
}

func (c configSettings) sessionSettings() session.Settings {
	mode := session.UpdateOnSave
	if c.UpdateOn == string(session.UpdateOnType) {
		mode = session.UpdateOnType
	}
	return session.Settings{
		Mode:           mode,
		TypeDelay:      millis(c.UpdateOnTypeDelayMs),
		ClickThreshold: millis(c.DoubleClickThresholdMs),
		Languages:      c.Languages,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
