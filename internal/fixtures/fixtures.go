// Package fixtures generates and verifies the conformance fixture corpus
// described in spec §6: for each request record foo.json, a
// canonical/foo.json (the canonical-codec output) and canonical/foo.sha256
// (its digest) that any conformant implementation must reproduce exactly.
package fixtures

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esrp/kernel/internal/canon"
	"github.com/esrp/kernel/internal/protocol"
)

// Result records the outcome of processing one request fixture.
type Result struct {
	Name          string
	CanonicalPath string
	HashPath      string
	Hash          string
}

// Generate reads every *.json request file in requestsDir, canonicalizes
// it, and writes canonical/<name>.json and canonical/<name>.sha256 into
// canonicalDir (created if absent). Fixture names are processed in sorted
// order for deterministic log output.
func Generate(requestsDir, canonicalDir string) ([]Result, error) {
	names, err := listRequestNames(requestsDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(canonicalDir, 0o755); err != nil {
		return nil, &Error{Code: CodeWriteFailed, Name: canonicalDir, Message: err.Error(), Err: err}
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		result, err := generateOne(requestsDir, canonicalDir, name)
		if err != nil {
			return nil, err
		}
		slog.Info("generated fixture", "name", name, "hash", result.Hash)
		results = append(results, result)
	}
	return results, nil
}

func generateOne(requestsDir, canonicalDir, name string) (Result, error) {
	reqPath := filepath.Join(requestsDir, name+".json")
	data, err := os.ReadFile(reqPath)
	if err != nil {
		return Result{}, &Error{Code: CodeReadFailed, Name: name, Message: err.Error(), Err: err}
	}

	_, canonical, hash, err := canonicalizeRequest(name, data)
	if err != nil {
		return Result{}, err
	}

	canonicalPath := filepath.Join(canonicalDir, name+".json")
	if err := os.WriteFile(canonicalPath, canonical, 0o644); err != nil {
		return Result{}, &Error{Code: CodeWriteFailed, Name: name, Message: err.Error(), Err: err}
	}

	hashPath := filepath.Join(canonicalDir, name+".sha256")
	if err := os.WriteFile(hashPath, []byte(hash), 0o644); err != nil {
		return Result{}, &Error{Code: CodeWriteFailed, Name: name, Message: err.Error(), Err: err}
	}

	return Result{Name: name, CanonicalPath: canonicalPath, HashPath: hashPath, Hash: hash}, nil
}

// Verify re-canonicalizes every *.json request in requestsDir and checks
// the result against the golden canonical/<name>.json and
// canonical/<name>.sha256 files, returning a *Error on the first mismatch
// or missing golden pair.
func Verify(requestsDir, canonicalDir string) ([]Result, error) {
	names, err := listRequestNames(requestsDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		result, err := verifyOne(requestsDir, canonicalDir, name)
		if err != nil {
			return nil, err
		}
		slog.Info("verified fixture", "name", name, "hash", result.Hash)
		results = append(results, result)
	}
	return results, nil
}

func verifyOne(requestsDir, canonicalDir, name string) (Result, error) {
	reqPath := filepath.Join(requestsDir, name+".json")
	data, err := os.ReadFile(reqPath)
	if err != nil {
		return Result{}, &Error{Code: CodeReadFailed, Name: name, Message: err.Error(), Err: err}
	}

	_, canonical, hash, err := canonicalizeRequest(name, data)
	if err != nil {
		return Result{}, err
	}

	canonicalPath := filepath.Join(canonicalDir, name+".json")
	goldenCanonical, err := os.ReadFile(canonicalPath)
	if err != nil {
		return Result{}, &Error{Code: CodeMissingGolden, Name: name, Message: "canonical/" + name + ".json not found"}
	}
	if string(goldenCanonical) != string(canonical) {
		return Result{}, &Error{Code: CodeMismatch, Name: name, Message: "canonical bytes do not match golden fixture"}
	}

	hashPath := filepath.Join(canonicalDir, name+".sha256")
	goldenHash, err := os.ReadFile(hashPath)
	if err != nil {
		return Result{}, &Error{Code: CodeMissingGolden, Name: name, Message: "canonical/" + name + ".sha256 not found"}
	}
	if strings.TrimSpace(string(goldenHash)) != hash {
		return Result{}, &Error{Code: CodeMismatch, Name: name, Message: "sha256 does not match golden fixture"}
	}

	return Result{Name: name, CanonicalPath: canonicalPath, HashPath: hashPath, Hash: hash}, nil
}

func canonicalizeRequest(name string, data []byte) (protocol.Value, []byte, string, error) {
	var req protocol.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, "", &Error{Code: CodeDecodeFailed, Name: name, Message: err.Error(), Err: err}
	}

	value, err := requestToValue(&req)
	if err != nil {
		return nil, nil, "", &Error{Code: CodeCanonicalizeFailed, Name: name, Message: err.Error(), Err: err}
	}

	canonical, err := canon.Canonicalize(value)
	if err != nil {
		return nil, nil, "", &Error{Code: CodeCanonicalizeFailed, Name: name, Message: err.Error(), Err: err}
	}

	hash := canon.HashBytes(canonical)
	return value, canonical, hash, nil
}

// requestToValue round-trips req through its own JSON marshaling and back
// into a protocol.Value tree, so canonicalization sees exactly the wire
// shape (including defaulted fields like mode) rather than re-deriving it
// field by field.
func requestToValue(req *protocol.Request) (protocol.Value, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return protocol.ParseValue(data)
}

func listRequestNames(requestsDir string) ([]string, error) {
	entries, err := os.ReadDir(requestsDir)
	if err != nil {
		return nil, &Error{Code: CodeReadFailed, Name: requestsDir, Message: err.Error(), Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}
