package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRADESLIP_LOG_LEVEL", "error")
	jsonFlag, auditFlag, remoteFlag = false, false, ""

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCommandJSON(t *testing.T) {
	out, err := runCLI(t, "", "parse", "--json", "AAPL Kjøp 10 150,50 kr Dato: 01.06.2024")
	require.NoError(t, err)

	var c parse.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "AAPL", c.Ticker)
	assert.Equal(t, parse.High, c.Confidence)
}

func TestParseCommandReadsStdin(t *testing.T) {
	out, err := runCLI(t, "Equinor Selg 01.02.2024", "parse", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"direction": "sell"`)
}

func TestParseCommandRejectsEmptyInput(t *testing.T) {
	_, err := runCLI(t, "   ", "parse")
	assert.Error(t, err)
}

func TestDBMigrateAndJobs(t *testing.T) {
	t.Setenv("TRADESLIP_DATABASE_DSN", "file:"+filepath.Join(t.TempDir(), "cli.db"))

	_, err := runCLI(t, "", "db", "migrate")
	require.NoError(t, err)

	out, err := runCLI(t, "", "db", "jobs", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", strings.TrimSpace(out))
}

func TestBatchRequiresSupportedFiles(t *testing.T) {
	_, err := runCLI(t, "", "batch", t.TempDir())
	assert.Error(t, err)
}
