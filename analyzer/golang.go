package analyzer

import (
	"context"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// GoRecognizer extracts imports and call facts from Go sources using the
// standard library parser.
type GoRecognizer struct{}

// NewGoRecognizer creates a Go source recognizer.
func NewGoRecognizer() *GoRecognizer {
	return &GoRecognizer{}
}

// Language returns the recognizer's language name.
func (r *GoRecognizer) Language() string {
	return "go"
}

// Extract parses a Go file and collects its imports and call expressions.
// Calls through imported packages are rendered as "pkg.Func" using the
// import's local name.
func (r *GoRecognizer) Extract(ctx context.Context, path string, content []byte) (*Facts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, 0)
	if err != nil {
		return nil, fmt.Errorf("parse go file: %w", err)
	}

	facts := &Facts{}

	// Build import map for call resolution, keyed by local name.
	importMap := make(map[string]string)
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		facts.Imports = append(facts.Imports, importPath)

		var localName string
		if imp.Name != nil && imp.Name.Name != "." && imp.Name.Name != "_" {
			localName = imp.Name.Name
		} else {
			parts := strings.Split(importPath, "/")
			localName = parts[len(parts)-1]
		}
		importMap[localName] = importPath
	}

	goast.Inspect(file, func(n goast.Node) bool {
		call, ok := n.(*goast.CallExpr)
		if !ok {
			return true
		}
		switch fn := call.Fun.(type) {
		case *goast.Ident:
			facts.Calls = append(facts.Calls, fn.Name)
		case *goast.SelectorExpr:
			if recv, ok := fn.X.(*goast.Ident); ok {
				facts.Calls = append(facts.Calls, recv.Name+"."+fn.Sel.Name)
			} else {
				facts.Calls = append(facts.Calls, fn.Sel.Name)
			}
		}
		return true
	})

	return facts, nil
}
