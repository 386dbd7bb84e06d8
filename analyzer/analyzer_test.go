package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/scanner"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

const goAuthSource = `package auth

import (
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
}
`

const pythonCryptoSource = `import secrets
from cryptography.fernet import Fernet

def encrypt(key, data):
    f = Fernet(key)
    return f.encrypt(data)

def make_nonce():
    return secrets.token_bytes(12)
`

const jsSessionSource = `import jwt from "jsonwebtoken";

export function issue(claims, secret) {
  return jwt.sign(claims, secret, { expiresIn: "1h" });
}
`

func artifact(path, content string) *scanner.RepositoryStandard {
	return &scanner.RepositoryStandard{
		Path:    path,
		Content: content,
		Type:    scanner.ArtifactCode,
	}
}

func TestAnalyzeGoImports(t *testing.T) {
	a := New()
	patterns := a.Analyze(context.Background(), artifact("internal/auth/password.go", goAuthSource))

	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Equal(t, "password-hashing", p.Name)
	assert.Equal(t, vocab.DomainAuthentication, p.Domain)
	assert.Equal(t, "go", p.Language)
	assert.Equal(t, "golang.org/x/crypto/bcrypt", p.Matched)
	assert.Equal(t, "internal/auth/password.go", p.Location)
	assert.InDelta(t, 0.9, p.Confidence, 0.001)
}

func TestAnalyzePythonStructural(t *testing.T) {
	a := New()
	patterns := a.Analyze(context.Background(), artifact("svc/crypto.py", pythonCryptoSource))

	require.Len(t, patterns, 2)
	// Sorted by pattern name.
	assert.Equal(t, "encryption", patterns[0].Name)
	assert.Equal(t, "nonce-generation", patterns[1].Name)
	for _, p := range patterns {
		assert.Equal(t, vocab.DomainCryptography, p.Domain)
		assert.Equal(t, "python", p.Language)
	}
}

func TestAnalyzeJavaScriptImport(t *testing.T) {
	a := New()
	patterns := a.Analyze(context.Background(), artifact("src/session.js", jsSessionSource))

	require.Len(t, patterns, 1)
	assert.Equal(t, "session-tokens", patterns[0].Name)
	assert.Equal(t, "jsonwebtoken", patterns[0].Matched)
}

func TestAnalyzeTextFallbackOnParseFailure(t *testing.T) {
	// Broken Go source still matches on keywords, at reduced
	// confidence.
	broken := "package {{{ not go\n// we hash with bcrypt here\n"
	a := New()
	patterns := a.Analyze(context.Background(), artifact("cmd/broken.go", broken))

	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Equal(t, "password-hashing", p.Name)
	assert.Equal(t, "bcrypt", p.Matched)
	assert.InDelta(t, 0.9*0.8, p.Confidence, 0.001)
}

func TestAnalyzeKeywordsInConfiguration(t *testing.T) {
	tfvars := `resource "aws_lb_listener" "front" {
  protocol   = "HTTPS"
  ssl_policy = "ELBSecurityPolicy-TLS13-1-2-2021-06"
}
`
	a := New()
	patterns := a.Analyze(context.Background(), artifact("deploy/lb.tf", tfvars))

	require.Len(t, patterns, 1)
	assert.Equal(t, "tls-configuration", patterns[0].Name)
	assert.Equal(t, ValidationConfigurationScan, patterns[0].Method)
}

func TestAnalyzeDedupesToOnePerPattern(t *testing.T) {
	// Multiple bcrypt markers in one file still yield a single match.
	src := goAuthSource + `
func Check(hash, pw []byte) error {
	return bcrypt.CompareHashAndPassword(hash, pw)
}
`
	a := New()
	patterns := a.Analyze(context.Background(), artifact("auth.go", src))

	names := make(map[string]int)
	for _, p := range patterns {
		names[p.Name]++
	}
	assert.Equal(t, 1, names["password-hashing"])
}

func TestAnalyzeNoMatches(t *testing.T) {
	a := New()
	patterns := a.Analyze(context.Background(), artifact("README.md", "# complymap\n\nMaps repositories to controls.\n"))
	assert.Empty(t, patterns)
}

func TestMatchFactsPrefixAndSuffix(t *testing.T) {
	sig := Signature{
		Imports: []string{"cryptography"},
		Calls:   []string{"token_bytes"},
	}

	trigger, ok := matchFacts(sig, &Facts{Imports: []string{"cryptography.fernet"}})
	require.True(t, ok)
	assert.Equal(t, "cryptography.fernet", trigger)

	trigger, ok = matchFacts(sig, &Facts{Calls: []string{"secrets.token_bytes"}})
	require.True(t, ok)
	assert.Equal(t, "secrets.token_bytes", trigger)

	_, ok = matchFacts(sig, &Facts{Imports: []string{"cryptographyx"}})
	assert.False(t, ok)
}

func TestGoRecognizerExtract(t *testing.T) {
	r := NewGoRecognizer()
	facts, err := r.Extract(context.Background(), "auth.go", []byte(goAuthSource))
	require.NoError(t, err)

	assert.Contains(t, facts.Imports, "golang.org/x/crypto/bcrypt")
	assert.Contains(t, facts.Calls, "bcrypt.GenerateFromPassword")
}

func TestPythonRecognizerExtract(t *testing.T) {
	r := NewPythonRecognizer()
	facts, err := r.Extract(context.Background(), "crypto.py", []byte(pythonCryptoSource))
	require.NoError(t, err)

	assert.Contains(t, facts.Imports, "secrets")
	assert.Contains(t, facts.Calls, "secrets.token_bytes")
}

func TestJavaScriptRecognizerRequire(t *testing.T) {
	src := `const jwt = require("jsonwebtoken");
jwt.verify(token, secret);
`
	r := NewJavaScriptRecognizer()
	facts, err := r.Extract(context.Background(), "session.js", []byte(src))
	require.NoError(t, err)

	assert.Contains(t, facts.Imports, "jsonwebtoken")
	assert.Contains(t, facts.Calls, "jwt.verify")
}
