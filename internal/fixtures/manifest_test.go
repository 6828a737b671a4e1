package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifestHappyPath(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: conformance-core
description: core conformance corpus
fixtures:
  - name: simple
    description: a minimal request
  - name: sorted
    expected_hash: abc123
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "conformance-core", m.Name)
	require.Len(t, m.Fixtures, 2)
	assert.Equal(t, "simple", m.Fixtures[0].Name)
	assert.Equal(t, "abc123", m.Fixtures[1].ExpectedHash)
}

func TestLoadManifestStrictFieldsRejectsTypo(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
nmae: typo-name
fixtures:
  - name: simple
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestLoadManifestRequiresName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
fixtures:
  - name: simple
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestLoadManifestRequiresNonEmptyFixtures(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: empty
fixtures: []
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestLoadManifestRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: dup
fixtures:
  - name: simple
  - name: simple
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestVerifyAgainstManifestHappyPath(t *testing.T) {
	requestsDir := t.TempDir()
	canonicalDir := t.TempDir()
	writeRequest(t, requestsDir, "simple", sampleRequest)

	results, err := Generate(requestsDir, canonicalDir)
	require.NoError(t, err)

	manifestDir := t.TempDir()
	path := writeManifest(t, manifestDir, `
name: conformance-core
fixtures:
  - name: simple
    expected_hash: `+results[0].Hash+`
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	verified, err := VerifyAgainstManifest(m, requestsDir, canonicalDir)
	require.NoError(t, err)
	require.Len(t, verified, 1)
}

func TestVerifyAgainstManifestMissingFixture(t *testing.T) {
	requestsDir := t.TempDir()
	canonicalDir := t.TempDir()
	writeRequest(t, requestsDir, "simple", sampleRequest)
	_, err := Generate(requestsDir, canonicalDir)
	require.NoError(t, err)

	m := &Manifest{
		Name:     "conformance-core",
		Fixtures: []Entry{{Name: "missing"}},
	}

	_, err = VerifyAgainstManifest(m, requestsDir, canonicalDir)
	require.Error(t, err)
	assert.True(t, IsError(err, CodeMissingGolden))
}

func TestVerifyAgainstManifestHashMismatch(t *testing.T) {
	requestsDir := t.TempDir()
	canonicalDir := t.TempDir()
	writeRequest(t, requestsDir, "simple", sampleRequest)
	_, err := Generate(requestsDir, canonicalDir)
	require.NoError(t, err)

	m := &Manifest{
		Name:     "conformance-core",
		Fixtures: []Entry{{Name: "simple", ExpectedHash: "not-the-real-hash"}},
	}

	_, err = VerifyAgainstManifest(m, requestsDir, canonicalDir)
	require.Error(t, err)
	assert.True(t, IsError(err, CodeMismatch))
}
