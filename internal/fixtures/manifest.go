package fixtures

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a named fixture corpus: a human-readable name and
// description plus the list of request names it expects to find (and,
// for Verify, already have golden files for) under requests/ and
// canonical/. It's an optional convenience for conformance test suites
// that want to assert "this corpus has exactly these fixtures" rather than
// operate on whatever *.json files happen to be in the directory.
type Manifest struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Fixtures    []Entry `yaml:"fixtures"`
}

// Entry names a single fixture within a Manifest and optionally pins the
// hash it must produce, so a manifest can double as a conformance
// assertion independent of the golden files on disk.
type Entry struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	ExpectedHash string `yaml:"expected_hash,omitempty"`
}

// LoadManifest reads and strictly parses a fixtures.yaml manifest,
// rejecting unknown fields so a typo'd key surfaces as an error rather
// than being silently ignored.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read manifest: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("fixtures: parse manifest: %w", err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("fixtures: invalid manifest: %w", err)
	}
	return &m, nil
}

func validateManifest(m *Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Fixtures) == 0 {
		return fmt.Errorf("fixtures list must be non-empty")
	}
	seen := make(map[string]bool, len(m.Fixtures))
	for i, entry := range m.Fixtures {
		if entry.Name == "" {
			return fmt.Errorf("fixtures[%d]: name is required", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("fixtures[%d]: duplicate fixture name %q", i, entry.Name)
		}
		seen[entry.Name] = true
	}
	return nil
}

// VerifyAgainstManifest runs Verify over requestsDir/canonicalDir and then
// checks that every fixture named in m was actually produced, and that any
// pinned ExpectedHash matches.
func VerifyAgainstManifest(m *Manifest, requestsDir, canonicalDir string) ([]Result, error) {
	results, err := Verify(requestsDir, canonicalDir)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	for _, entry := range m.Fixtures {
		result, ok := byName[entry.Name]
		if !ok {
			return nil, &Error{Code: CodeMissingGolden, Name: entry.Name, Message: "fixture named in manifest was not found in requests directory"}
		}
		if entry.ExpectedHash != "" && entry.ExpectedHash != result.Hash {
			return nil, &Error{Code: CodeMismatch, Name: entry.Name, Message: "hash does not match manifest's expected_hash"}
		}
	}
	return results, nil
}
