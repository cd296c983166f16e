package manager

import (
	"fmt"
	"sync"

	"reprompt/internal/editor"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentManager keeps the text of each open URI in sync with the client.
type DocumentManager struct {
	mu       sync.Mutex
	docs     map[string]string
	versions map[string]protocol.Integer
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs:     make(map[string]string),
		versions: make(map[string]protocol.Integer),
	}
}

// Open stores the initial text of a document.
func (dm *DocumentManager) Open(uri string, version protocol.Integer, text string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = text
	dm.versions[uri] = version
}

// GetDocument returns the current text for a URI.
func (dm *DocumentManager) GetDocument(uri string) (string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return "", fmt.Errorf("document not loaded for %s", uri)
	}
	return doc, nil
}

func (dm *DocumentManager) Version(uri string) protocol.Integer {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.versions[uri]
}

// ApplyChanges applies the content changes of a didChange notification in
// order. Each change is either incremental or a full replacement.
func (dm *DocumentManager) ApplyChanges(uri string, version protocol.Integer, changes []any) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("no document for %s", uri)
	}

	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			doc = editor.ApplyChange(c, doc)
		case protocol.TextDocumentContentChangeEventWhole:
			doc = c.Text
		default:
			return fmt.Errorf("unsupported change %T for %s", change, uri)
		}
	}

	dm.docs[uri] = doc
	dm.versions[uri] = version
	return nil
}

// Release forgets the document for a URI.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
	delete(dm.versions, uri)
}

// CloseAll forgets every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs = make(map[string]string)
	dm.versions = make(map[string]protocol.Integer)
}
