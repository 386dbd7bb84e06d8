package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// DocumentParser parses raw file content into a Document.
type DocumentParser interface {
	// Parse parses file content into a Document.
	Parse(filename string, content []byte) (*Document, error)

	// Extensions returns the file extensions this parser handles,
	// including the leading dot.
	Extensions() []string
}

// Registry maps file extensions to document parsers. Thread-safe for
// concurrent access.
type Registry struct {
	mu     sync.RWMutex
	extMap map[string]DocumentParser
}

// NewRegistry creates a registry with the built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{extMap: make(map[string]DocumentParser)}
	r.Register(NewMarkdownParser())
	r.Register(NewHTMLParser())
	return r
}

// Register adds a parser for its declared extensions. The first
// registration wins on extension conflicts.
func (r *Registry) Register(p DocumentParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = p
		}
	}
}

// ForFile returns the parser registered for a file's extension.
func (r *Registry) ForFile(filename string) (DocumentParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.extMap[strings.ToLower(filepath.Ext(filename))]
	return p, ok
}

// Parse parses content using the parser registered for the filename's
// extension. Files without a registered parser are treated as plain text:
// the whole content becomes the body.
func (r *Registry) Parse(filename string, content []byte) (*Document, error) {
	if p, ok := r.ForFile(filename); ok {
		doc, err := p.Parse(filename, content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
		return doc, nil
	}

	return &Document{
		ID:       generateID(filename, content),
		Filename: filepath.Base(filename),
		Content:  string(content),
		Body:     string(content),
	}, nil
}
