package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/scanner/parser"
)

// Scanner walks a repository tree applying include/exclude rules and
// emits RepositoryStandard records. A Scanner is restartable: each Walk
// traverses the tree from scratch.
type Scanner struct {
	cfg     config.ScanConfig
	parsers *parser.Registry
	logger  *slog.Logger
}

// New creates a Scanner for the given scan configuration.
func New(cfg config.ScanConfig, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cfg:     cfg,
		parsers: parser.NewRegistry(),
		logger:  logger,
	}
}

// Walk traverses the scan root lazily, invoking visit for each matching
// artifact in traversal order. Unreadable paths are reported through
// onError (if non-nil) and skipped; only a visit error or context
// cancellation aborts the walk.
func (s *Scanner) Walk(ctx context.Context, visit func(*RepositoryStandard) error, onError func(*ScanError)) error {
	report := func(rel string, err error) {
		se := &ScanError{Path: rel, Err: err}
		s.logger.Warn("Skipping unreadable path", slog.String("path", rel), slog.String("error", err.Error()))
		if onError != nil {
			onError(se)
		}
	}

	root := s.cfg.Root
	if root == "" {
		root = "."
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			report(rel, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel != "." && s.excluded(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}

		if !s.matches(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			report(rel, err)
			return nil
		}
		if s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
			s.logger.Debug("Skipping oversized file",
				slog.String("path", rel),
				slog.Int64("size", info.Size()))
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			report(rel, err)
			return nil
		}

		doc, err := s.parsers.Parse(rel, content)
		if err != nil {
			report(rel, err)
			return nil
		}

		std := &RepositoryStandard{
			Path:         rel,
			Title:        doc.Title,
			Content:      doc.Body,
			Type:         classifyArtifact(rel),
			LastModified: info.ModTime(),
			Doc:          doc,
		}

		return visit(std)
	})
}

// ScanAll walks the tree and collects all artifacts, sorted by path for
// deterministic downstream processing, along with per-file scan errors.
func (s *Scanner) ScanAll(ctx context.Context) ([]*RepositoryStandard, []*ScanError, error) {
	var standards []*RepositoryStandard
	var scanErrs []*ScanError

	err := s.Walk(ctx,
		func(std *RepositoryStandard) error {
			standards = append(standards, std)
			return nil
		},
		func(se *ScanError) {
			scanErrs = append(scanErrs, se)
		})
	if err != nil {
		return nil, scanErrs, err
	}

	sort.Slice(standards, func(i, j int) bool {
		return standards[i].Path < standards[j].Path
	})
	return standards, scanErrs, nil
}

// matches reports whether a relative file path passes the include and
// exclude rules. An empty include list matches everything.
func (s *Scanner) matches(rel string) bool {
	if s.excluded(rel) {
		return false
	}
	if len(s.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range s.cfg.Include {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// excluded reports whether a relative path matches any exclude pattern.
func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
