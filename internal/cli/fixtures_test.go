package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturesGenerateThenVerify(t *testing.T) {
	requestsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(requestsDir, "simple.json"), []byte(validRequestJSON), 0o644))

	genBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	genCmd := NewFixturesCommand(rootOpts)
	genCmd.SetOut(genBuf)
	genCmd.SetArgs([]string{"generate", requestsDir})
	require.NoError(t, genCmd.Execute())
	assert.Contains(t, genBuf.String(), "simple")

	verifyBuf := &bytes.Buffer{}
	verifyCmd := NewFixturesCommand(rootOpts)
	verifyCmd.SetOut(verifyBuf)
	verifyCmd.SetArgs([]string{"verify", requestsDir})
	require.NoError(t, verifyCmd.Execute())
	assert.Contains(t, verifyBuf.String(), "OK")
}

func TestFixturesVerifyDetectsTamperedGolden(t *testing.T) {
	requestsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(requestsDir, "simple.json"), []byte(validRequestJSON), 0o644))

	rootOpts := &RootOptions{Format: "text"}
	genCmd := NewFixturesCommand(rootOpts)
	genCmd.SetOut(&bytes.Buffer{})
	genCmd.SetArgs([]string{"generate", requestsDir})
	require.NoError(t, genCmd.Execute())

	canonicalDir := filepath.Join(requestsDir, "canonical")
	require.NoError(t, os.WriteFile(filepath.Join(canonicalDir, "simple.json"), []byte(`{"tampered":true}`), 0o644))

	verifyCmd := NewFixturesCommand(rootOpts)
	verifyCmd.SetOut(&bytes.Buffer{})
	verifyCmd.SetArgs([]string{"verify", requestsDir})
	err := verifyCmd.Execute()
	require.Error(t, err)
}

func TestFixturesGenerateJSONFormat(t *testing.T) {
	requestsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(requestsDir, "simple.json"), []byte(validRequestJSON), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewFixturesCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"generate", requestsDir})
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFixturesVerifyWithManifest(t *testing.T) {
	requestsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(requestsDir, "simple.json"), []byte(validRequestJSON), 0o644))

	rootOpts := &RootOptions{Format: "text"}
	genCmd := NewFixturesCommand(rootOpts)
	genCmd.SetOut(&bytes.Buffer{})
	genCmd.SetArgs([]string{"generate", requestsDir})
	require.NoError(t, genCmd.Execute())

	manifestPath := filepath.Join(requestsDir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("name: core\nfixtures:\n  - name: simple\n"), 0o644))

	verifyBuf := &bytes.Buffer{}
	verifyCmd := NewFixturesCommand(rootOpts)
	verifyCmd.SetOut(verifyBuf)
	verifyCmd.SetArgs([]string{"verify", requestsDir, "--manifest", manifestPath})
	require.NoError(t, verifyCmd.Execute())
	assert.Contains(t, verifyBuf.String(), "simple")
}
