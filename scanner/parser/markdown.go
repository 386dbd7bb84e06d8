// Package parser provides document parsing for the repository scanner:
// markdown with YAML front-matter, and HTML normalized to markdown.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document represents a parsed document with its content and metadata.
type Document struct {
	// ID is the document identifier derived from file path and content.
	ID string `json:"id"`

	// Filename is the original filename.
	Filename string `json:"filename"`

	// Title is the document title (first heading or HTML title).
	Title string `json:"title,omitempty"`

	// Content is the raw document content.
	Content string `json:"content"`

	// Frontmatter contains parsed YAML front-matter if present.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`

	// Body is the content without front-matter.
	Body string `json:"body"`
}

// HasFrontmatter returns true if the document has parsed front-matter.
func (d *Document) HasFrontmatter() bool {
	return len(d.Frontmatter) > 0
}

// MarkdownParser parses markdown documents with optional YAML front-matter.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse parses a markdown document, extracting front-matter and body.
func (p *MarkdownParser) Parse(filename string, content []byte) (*Document, error) {
	doc := &Document{
		ID:       generateID(filename, content),
		Filename: filepath.Base(filename),
		Content:  string(content),
	}

	str := string(content)
	if strings.HasPrefix(str, "---\n") || strings.HasPrefix(str, "---\r\n") {
		frontmatter, body, err := extractFrontmatter(str)
		if err != nil {
			// If front-matter parsing fails, treat entire content as body.
			doc.Body = str
		} else {
			doc.Frontmatter = frontmatter
			doc.Body = body
		}
	} else {
		doc.Body = str
	}

	doc.Title = firstHeading(doc.Body)
	return doc, nil
}

// Extensions returns the file extensions this parser handles.
func (p *MarkdownParser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// extractFrontmatter parses YAML front-matter from markdown content.
// Returns the parsed front-matter map, the remaining body, and any error.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	// Skip the opening delimiter.
	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	// Find the closing delimiter.
	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		closeIdx = strings.Index(content[start:], "\r\n"+delimiter)
	}
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	// Find where the body starts (after closing delimiter and newline).
	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	return frontmatter, body, nil
}

var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// firstHeading returns the first markdown heading text, or empty.
func firstHeading(body string) string {
	if m := headingPattern.FindStringSubmatch(body); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// generateID creates a stable document ID from filename and content hash.
func generateID(filename string, content []byte) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = sanitizeID(name)

	hash := sha256.Sum256(content)
	short := hex.EncodeToString(hash[:4])

	return fmt.Sprintf("%s-%s", name, short)
}

// sanitizeID lowercases and replaces non-alphanumeric runs with hyphens.
func sanitizeID(s string) string {
	var sb strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
