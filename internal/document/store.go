// Package document caches one (text, tree) snapshot per open file.
package document

import (
	"sync"

	"github.com/mkanilsson/qbels/internal/syntax"
)

// Document is one immutable snapshot of an open file. Its tree and
// source never change; an edit replaces the whole document.
type Document struct {
	URI    string
	Source []byte
	Tree   *syntax.Tree
}

// Text returns the snapshot's source as a string.
func (d *Document) Text() string { return string(d.Source) }

// Store holds the current snapshot of every open file, keyed by URI.
// Replacement is atomic: text and tree are parsed together under the
// store lock, so no reader ever observes a half-updated pairing.
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open parses text and installs it as uri's current snapshot,
// replacing any previous one. It returns the new snapshot.
func (s *Store) Open(uri string, text string) *Document {
	source := []byte(text)
	doc := &Document{URI: uri, Source: source, Tree: syntax.Parse(source)}

	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()

	return doc
}

// Get returns uri's current snapshot.
func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	s.mu.Unlock()
	return doc, ok
}

// Close evicts uri's snapshot, if any.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}
