package oscal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON atomically writes v as indented JSON: the payload lands in
// a temp file in the target directory and is renamed into place, so a
// failed run never leaves a truncated document behind.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".oscal-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteSSP validates and atomically writes an SSP document. Validation
// failures abort before anything touches disk.
func WriteSSP(path string, doc *SSPDocument) error {
	if err := ValidateSSP(doc); err != nil {
		return err
	}
	return WriteJSON(path, doc)
}

// WriteAssessmentResults validates and atomically writes an
// assessment-results document.
func WriteAssessmentResults(path string, doc *AssessmentResultsDocument) error {
	if err := ValidateAssessmentResults(doc); err != nil {
		return err
	}
	return WriteJSON(path, doc)
}
