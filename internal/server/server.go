// Package server wires the symbol engine to the Language Server
// Protocol: lifecycle, document synchronization and the four
// navigation operations.
package server

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/mkanilsson/qbels/internal/analysis"
	"github.com/mkanilsson/qbels/internal/document"
	"github.com/mkanilsson/qbels/internal/model"
	"github.com/mkanilsson/qbels/internal/syntax"
)

// Server holds the handler state: the shared document store and a
// logger. The symbol engine itself is stateless; all per-request data
// comes from one snapshot.
type Server struct {
	name    string
	version string
	log     commonlog.Logger
	docs    *document.Store
	handler *protocol.Handler
}

// New builds a server with an empty document store.
func New(name, version string) *Server {
	s := &Server{
		name:    name,
		version: version,
		log:     commonlog.GetLogger(name),
		docs:    document.NewStore(),
	}
	s.handler = &protocol.Handler{
		Initialize:                s.initialize,
		Initialized:               s.initialized,
		Shutdown:                  s.shutdown,
		SetTrace:                  s.setTrace,
		TextDocumentDidOpen:       s.didOpen,
		TextDocumentDidChange:     s.didChange,
		TextDocumentDidClose:      s.didClose,
		TextDocumentDefinition:    s.definition,
		TextDocumentReferences:    s.references,
		TextDocumentPrepareRename: s.prepareRename,
		TextDocumentRename:        s.rename,
	}
	return s
}

// Handler returns the protocol handler to serve.
func (s *Server) Handler() *protocol.Handler { return s.handler }

func (s *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull
	prepare := true
	capabilities.RenameProvider = protocol.RenameOptions{PrepareProvider: &prepare}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	s.log.Info("server initialized")
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Open(uri, params.TextDocument.Text)
	s.log.Debugf("opened %s", uri)
	return nil
}

func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// Sync is full-document: every change carries the whole text.
	text, ok := "", false
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, ok = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			text, ok = c.Text, true
		}
	}
	if !ok {
		return nil
	}

	uri := string(params.TextDocument.URI)
	s.docs.Open(uri, text)
	s.log.Debugf("changed %s", uri)
	return nil
}

func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.Close(string(params.TextDocument.URI))
	return nil
}

func (s *Server) definition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, occ, err := s.occurrenceAt(params.TextDocument.URI, params.Position)
	if err != nil || occ == nil {
		return nil, err
	}

	scope, err := analysis.ScopeOf(occ, doc.Tree.Root())
	if err != nil {
		if errors.Is(err, analysis.ErrNoEnclosingScope) {
			return nil, nil
		}
		return nil, err
	}

	ranges, err := analysis.Definitions(doc.Tree.Root(), doc.Source, occ, scope)
	if err != nil {
		return nil, err
	}

	locations := locationsFor(params.TextDocument.URI, ranges)
	switch len(locations) {
	case 0:
		return nil, nil
	case 1:
		return locations[0], nil
	default:
		return locations, nil
	}
}

func (s *Server) references(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc, occ, err := s.occurrenceAt(params.TextDocument.URI, params.Position)
	if err != nil || occ == nil {
		return nil, err
	}

	scope, err := analysis.ScopeOf(occ, doc.Tree.Root())
	if err != nil {
		if errors.Is(err, analysis.ErrNoEnclosingScope) {
			return nil, nil
		}
		return nil, err
	}

	ranges, err := analysis.References(doc.Tree.Root(), doc.Source, occ, scope)
	if err != nil {
		return nil, err
	}
	return locationsFor(params.TextDocument.URI, ranges), nil
}

// prepareRenameResult is the range-with-placeholder variant of the
// prepareRename response.
type prepareRenameResult struct {
	Range       protocol.Range `json:"range"`
	Placeholder string         `json:"placeholder"`
}

func (s *Server) prepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	_, occ, err := s.occurrenceAt(params.TextDocument.URI, params.Position)
	if err != nil || occ == nil {
		return nil, err
	}
	return prepareRenameResult{
		Range:       rangeFor(occ.Range()),
		Placeholder: occ.Name,
	}, nil
}

func (s *Server) rename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	doc, occ, err := s.occurrenceAt(params.TextDocument.URI, params.Position)
	if err != nil || occ == nil {
		return nil, err
	}

	scope, err := analysis.ScopeOf(occ, doc.Tree.Root())
	if err != nil {
		return nil, fmt.Errorf("cannot rename %s %q: %w", occ.Kind, occ.Name, err)
	}

	edits, err := analysis.PlanRename(scope, doc.Source, occ, params.NewName)
	if err != nil {
		return nil, err
	}

	textEdits := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		textEdits = append(textEdits, protocol.TextEdit{
			Range:   rangeFor(e.Range),
			NewText: e.NewText,
		})
	}

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			params.TextDocument.URI: textEdits,
		},
	}, nil
}

// occurrenceAt fetches the current snapshot and classifies the cursor
// position. A nil occurrence with nil error means the cursor is not
// on an identifier; the caller reports an empty result.
func (s *Server) occurrenceAt(uri protocol.DocumentUri, pos protocol.Position) (*document.Document, *model.Occurrence, error) {
	doc, ok := s.docs.Get(string(uri))
	if !ok {
		return nil, nil, fmt.Errorf("no open document for %s", uri)
	}

	occ, err := analysis.At(doc.Tree.Root(), doc.Source, pointFromPosition(pos))
	if err != nil {
		return nil, nil, err
	}
	return doc, occ, nil
}

func pointFromPosition(pos protocol.Position) syntax.Point {
	return syntax.Point{Row: uint32(pos.Line), Column: uint32(pos.Character)}
}

func rangeFor(r syntax.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(r.StartPoint.Row),
			Character: protocol.UInteger(r.StartPoint.Column),
		},
		End: protocol.Position{
			Line:      protocol.UInteger(r.EndPoint.Row),
			Character: protocol.UInteger(r.EndPoint.Column),
		},
	}
}

func locationsFor(uri protocol.DocumentUri, ranges []syntax.Range) []protocol.Location {
	if len(ranges) == 0 {
		return nil
	}
	locations := make([]protocol.Location, 0, len(ranges))
	for _, r := range ranges {
		locations = append(locations, protocol.Location{URI: uri, Range: rangeFor(r)})
	}
	return locations
}
