package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// HTMLParser normalizes HTML standards documents to markdown so they flow
// through the same semantic analysis as authored markdown. Readability
// extraction strips navigation and boilerplate before conversion.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		converter: md.NewConverter("", true, nil),
	}
}

// Parse extracts the readable content of an HTML document and converts it
// to markdown. The original HTML is preserved in Content; Body carries
// the normalized markdown.
func (p *HTMLParser) Parse(filename string, content []byte) (*Document, error) {
	doc := &Document{
		ID:       generateID(filename, content),
		Filename: filepath.Base(filename),
		Content:  string(content),
	}

	pageURL := &url.URL{Scheme: "file", Path: filename}
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract readable content: %w", err)
	}

	source := article.Content
	if strings.TrimSpace(source) == "" {
		source = string(content)
	}

	markdown, err := p.converter.ConvertString(source)
	if err != nil {
		return nil, fmt.Errorf("convert HTML to markdown: %w", err)
	}
	doc.Body = markdown

	doc.Title = article.Title
	if doc.Title == "" {
		doc.Title = htmlTitle(content)
	}

	return doc, nil
}

// Extensions returns the file extensions this parser handles.
func (p *HTMLParser) Extensions() []string {
	return []string{".html", ".htm"}
}

// htmlTitle extracts the <title> element text, or empty.
func htmlTitle(content []byte) string {
	node, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return title
}
