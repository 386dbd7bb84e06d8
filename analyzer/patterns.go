package analyzer

import (
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

// Signature lists the per-language markers that trigger a pattern.
// Imports and Calls apply to code recognizers; Keywords apply to the
// text recognizer used for configuration, IaC, and documentation.
type Signature struct {
	Imports  []string
	Calls    []string
	Keywords []string
}

// Pattern is one entry of the declarative detection table.
type Pattern struct {
	// Name identifies the pattern.
	Name string

	// Domain is the security domain the pattern evidences.
	Domain vocab.Domain

	// Method is the validation method recorded on matches.
	Method ValidationMethod

	// Confidence is the base detection confidence for this pattern.
	Confidence float64

	// Signatures maps a language name ("go", "python", "javascript") or
	// "text" to its markers. Adding a language is a data change here.
	Signatures map[string]Signature
}

// DefaultPatterns is the built-in detection table covering
// authentication, authorization, cryptography, audit logging, and input
// validation across the supported languages.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:       "password-hashing",
			Domain:     vocab.DomainAuthentication,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.9,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"golang.org/x/crypto/bcrypt", "golang.org/x/crypto/argon2", "golang.org/x/crypto/scrypt"},
					Calls:   []string{"bcrypt.GenerateFromPassword", "bcrypt.CompareHashAndPassword", "argon2.IDKey", "scrypt.Key"},
				},
				"python": {
					Imports: []string{"bcrypt", "argon2", "passlib"},
					Calls:   []string{"bcrypt.hashpw", "bcrypt.checkpw", "PasswordHasher"},
				},
				"javascript": {
					Imports: []string{"bcrypt", "bcryptjs", "argon2"},
					Calls:   []string{"bcrypt.hash", "bcrypt.compare", "argon2.hash", "argon2.verify"},
				},
				"text": {
					Keywords: []string{"bcrypt", "argon2", "password hashing", "adaptive hash"},
				},
			},
		},
		{
			Name:       "session-tokens",
			Domain:     vocab.DomainAuthentication,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.75,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"github.com/golang-jwt/jwt", "github.com/golang-jwt/jwt/v5"},
					Calls:   []string{"jwt.Parse", "jwt.NewWithClaims"},
				},
				"python": {
					Imports: []string{"jwt", "itsdangerous"},
					Calls:   []string{"jwt.encode", "jwt.decode"},
				},
				"javascript": {
					Imports: []string{"jsonwebtoken"},
					Calls:   []string{"jwt.sign", "jwt.verify"},
				},
				"text": {
					Keywords: []string{"jwt", "session token", "bearer token"},
				},
			},
		},
		{
			Name:       "access-control",
			Domain:     vocab.DomainAuthorization,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.7,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"github.com/casbin/casbin", "github.com/casbin/casbin/v2"},
					Calls:   []string{"Enforce", "RequireRole", "Authorize"},
				},
				"python": {
					Imports: []string{"casbin", "flask_principal"},
					Calls:   []string{"enforce", "require_role", "permission_required"},
				},
				"javascript": {
					Imports: []string{"casbin", "accesscontrol"},
					Calls:   []string{"enforce", "can", "grant"},
				},
				"text": {
					Keywords: []string{"rbac", "role-based access", "least privilege", "access control"},
				},
			},
		},
		{
			Name:       "encryption",
			Domain:     vocab.DomainCryptography,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.85,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"crypto/aes", "crypto/cipher", "crypto/rsa", "crypto/ecdsa"},
					Calls:   []string{"aes.NewCipher", "cipher.NewGCM", "rsa.EncryptOAEP"},
				},
				"python": {
					Imports: []string{"cryptography", "Crypto.Cipher", "nacl"},
					Calls:   []string{"Fernet", "AESGCM", "SecretBox"},
				},
				"javascript": {
					Imports: []string{"crypto", "node:crypto"},
					Calls:   []string{"createCipheriv", "createDecipheriv", "subtle.encrypt"},
				},
				"text": {
					Keywords: []string{"aes-256", "encryption at rest", "envelope encryption", "kms"},
				},
			},
		},
		{
			Name:       "nonce-generation",
			Domain:     vocab.DomainCryptography,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.8,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"crypto/rand"},
					Calls:   []string{"rand.Read", "io.ReadFull"},
				},
				"python": {
					Imports: []string{"secrets", "os"},
					Calls:   []string{"secrets.token_bytes", "os.urandom"},
				},
				"javascript": {
					Imports: []string{"crypto", "node:crypto"},
					Calls:   []string{"randomBytes", "getRandomValues"},
				},
				"text": {
					Keywords: []string{"nonce", "initialization vector", "random iv"},
				},
			},
		},
		{
			Name:       "tls-configuration",
			Domain:     vocab.DomainDataProtection,
			Method:     ValidationConfigurationScan,
			Confidence: 0.75,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"crypto/tls"},
					Calls:   []string{"tls.Config", "tls.LoadX509KeyPair"},
				},
				"python": {
					Imports: []string{"ssl"},
					Calls:   []string{"ssl.create_default_context", "SSLContext"},
				},
				"text": {
					Keywords: []string{"tls", "https", "min_tls_version", "ssl_protocols", "certificate"},
				},
			},
		},
		{
			Name:       "audit-logging",
			Domain:     vocab.DomainAuditLogging,
			Method:     ValidationRuntimeCheck,
			Confidence: 0.7,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"log/slog", "go.uber.org/zap"},
					Calls:   []string{"slog.Info", "slog.Warn", "AuditLog", "audit.Log"},
				},
				"python": {
					Imports: []string{"logging", "structlog"},
					Calls:   []string{"logger.info", "audit_log", "structlog.get_logger"},
				},
				"javascript": {
					Imports: []string{"winston", "pino"},
					Calls:   []string{"logger.info", "audit", "createLogger"},
				},
				"text": {
					Keywords: []string{"audit log", "audit trail", "security event", "log retention"},
				},
			},
		},
		{
			Name:       "input-validation",
			Domain:     vocab.DomainInputValidation,
			Method:     ValidationStaticAnalysis,
			Confidence: 0.7,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"github.com/go-playground/validator", "github.com/go-playground/validator/v10", "html/template"},
					Calls:   []string{"validator.New", "Struct", "template.HTMLEscapeString"},
				},
				"python": {
					Imports: []string{"pydantic", "marshmallow", "cerberus"},
					Calls:   []string{"BaseModel", "Schema", "validate"},
				},
				"javascript": {
					Imports: []string{"joi", "zod", "express-validator"},
					Calls:   []string{"Joi.object", "z.object", "body", "sanitize"},
				},
				"text": {
					Keywords: []string{"input validation", "sanitize", "parameterized quer", "allowlist"},
				},
			},
		},
		{
			Name:       "secret-management",
			Domain:     vocab.DomainConfiguration,
			Method:     ValidationConfigurationScan,
			Confidence: 0.65,
			Signatures: map[string]Signature{
				"go": {
					Imports: []string{"github.com/hashicorp/vault/api"},
					Calls:   []string{"os.Getenv", "vault.NewClient"},
				},
				"python": {
					Imports: []string{"hvac", "dotenv"},
					Calls:   []string{"os.environ", "load_dotenv"},
				},
				"text": {
					Keywords: []string{"vault", "secretsmanager", "sealed secret", "secretkeyref", "key rotation"},
				},
			},
		},
	}
}
