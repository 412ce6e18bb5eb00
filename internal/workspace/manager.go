// Package workspace owns the logical project: the open-document set, the
// metadata references and the compiled snapshot the rule engine reads.
//
// Mutations are serialised behind a single writer lock; analyses operate
// on immutable snapshots captured at their start.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"ushlint/internal/settings"
	"ushlint/internal/stubs"
	"ushlint/internal/syntax"
)

// Document is one open document.
type Document struct {
	URI     string
	Path    string
	Text    string
	Version int
}

// Snapshot is an immutable compilation snapshot.
type Snapshot struct {
	Docs  map[string]*DocView
	Index *Index
}

// DocView couples a document with its parsed projection.
type DocView struct {
	Doc  *Document
	File *syntax.File
}

// Manager owns one logical project and the URI -> document mapping.
type Manager struct {
	log      *slog.Logger
	resolver *stubs.Resolver
	cache    *syntax.Cache

	mu       sync.Mutex
	docs     map[string]*Document
	catalogs []*stubs.Catalog
	snapshot *Snapshot // nil when invalidated
}

// NewManager constructs a manager; baseDir locates the bundled stub tree.
func NewManager(log *slog.Logger, baseDir string) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:      log,
		resolver: stubs.NewResolver(log, baseDir),
		cache:    syntax.NewCache(0),
		docs:     make(map[string]*Document),
	}
}

// Initialise rebuilds the project with fresh references. Open documents
// keep their text across the rebuild; all analysis caches are dropped
// because the reference set may have changed.
func (m *Manager) Initialise(s settings.Settings) error {
	catalogs := m.resolver.Resolve(s)
	if len(catalogs) == 0 {
		return fmt.Errorf("no metadata references resolved")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs = catalogs
	m.cache.Purge()
	m.snapshot = nil
	m.log.Info("workspace initialised", "references", len(catalogs), "openDocuments", len(m.docs))
	return nil
}

// OpenOrUpdate inserts or replaces the document text, returning the
// document handle. Only the document's own cache entry is invalidated.
func (m *Manager) OpenOrUpdate(uri, text string, version int) *Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[uri]
	if !ok {
		doc = &Document{URI: uri, Path: URIToPath(uri)}
		m.docs[uri] = doc
	}
	doc.Text = text
	doc.Version = version
	m.snapshot = nil
	return doc
}

// Remove drops the document. A document not in the set never produces
// diagnostics again.
func (m *Manager) Remove(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
	m.cache.Remove(uri)
	m.snapshot = nil
}

// Get returns the latest handle or nil.
func (m *Manager) Get(uri string) *Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[uri]
}

// OpenURIs returns the open document URIs in stable order.
func (m *Manager) OpenURIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.docs))
	for uri := range m.docs {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the current compilation snapshot, rebuilding it when a
// mutation invalidated the previous one.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	docs := make(map[string]*DocView, len(m.docs))
	files := make([]*syntax.File, 0, len(m.docs))
	uris := make([]string, 0, len(m.docs))
	for uri := range m.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		doc := m.docs[uri]
		tree, err := m.cache.Parse(ctx, uri, []byte(doc.Text))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.log.Error("parse failed", "uri", uri, "error", err)
			continue
		}
		file := syntax.BuildFile(doc.Path, tree)
		docs[uri] = &DocView{Doc: doc, File: file}
		files = append(files, file)
	}
	m.snapshot = &Snapshot{
		Docs:  docs,
		Index: NewIndex(m.catalogs, files),
	}
	return m.snapshot, nil
}
