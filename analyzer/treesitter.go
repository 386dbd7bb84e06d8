package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// sitterSpec names the tree-sitter node types that carry imports and
// calls for a language.
type sitterSpec struct {
	importNodes map[string]struct{}
	callNodes   map[string]struct{}
}

// TreeSitterRecognizer extracts imports and call facts from sources of
// one tree-sitter-supported language.
type TreeSitterRecognizer struct {
	language string
	parser   *sitter.Parser
	spec     sitterSpec
}

// NewPythonRecognizer creates a Python source recognizer.
func NewPythonRecognizer() *TreeSitterRecognizer {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &TreeSitterRecognizer{
		language: "python",
		parser:   p,
		spec: sitterSpec{
			importNodes: map[string]struct{}{
				"import_statement":      {},
				"import_from_statement": {},
			},
			callNodes: map[string]struct{}{
				"call": {},
			},
		},
	}
}

// NewJavaScriptRecognizer creates a JavaScript source recognizer.
func NewJavaScriptRecognizer() *TreeSitterRecognizer {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &TreeSitterRecognizer{
		language: "javascript",
		parser:   p,
		spec: sitterSpec{
			importNodes: map[string]struct{}{
				"import_statement": {},
			},
			callNodes: map[string]struct{}{
				"call_expression": {},
			},
		},
	}
}

// Language returns the recognizer's language name.
func (r *TreeSitterRecognizer) Language() string {
	return r.language
}

// Extract parses the file with tree-sitter and collects import paths and
// called function names.
func (r *TreeSitterRecognizer) Extract(ctx context.Context, path string, content []byte) (*Facts, error) {
	tree, err := r.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s file: %w", r.language, err)
	}
	defer tree.Close()

	facts := &Facts{}
	r.walk(tree.RootNode(), content, facts)
	return facts, nil
}

// walk descends the syntax tree collecting import and call facts.
func (r *TreeSitterRecognizer) walk(node *sitter.Node, content []byte, facts *Facts) {
	nodeType := node.Type()

	if _, ok := r.spec.importNodes[nodeType]; ok {
		if imp := r.importTarget(node, content); imp != "" {
			facts.Imports = append(facts.Imports, imp)
		}
	}
	if _, ok := r.spec.callNodes[nodeType]; ok {
		if fn := r.callTarget(node, content); fn != "" {
			facts.Calls = append(facts.Calls, fn)
			// CommonJS require("mod") counts as an import.
			if fn == "require" {
				if arg := firstStringArgument(node, content); arg != "" {
					facts.Imports = append(facts.Imports, arg)
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		r.walk(node.Child(i), content, facts)
	}
}

// importTarget extracts the imported module name from an import node.
func (r *TreeSitterRecognizer) importTarget(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name", "aliased_import":
			return child.Content(content)
		case "string":
			return strings.Trim(child.Content(content), `"'`)
		}
	}
	return ""
}

// callTarget extracts the called function text (identifier or attribute
// chain) from a call node.
func (r *TreeSitterRecognizer) callTarget(node *sitter.Node, content []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "attribute", "member_expression":
		return fn.Content(content)
	}
	return ""
}

// firstStringArgument returns the first string literal argument of a
// call node, unquoted.
func firstStringArgument(node *sitter.Node, content []byte) string {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "string" {
			return strings.Trim(child.Content(content), `"'`)
		}
	}
	return ""
}
