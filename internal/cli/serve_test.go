package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommandMissingSite(t *testing.T) {
	t.Setenv("LEDSTORY_CONFIG", "")

	out, _, err := execute(NewServeCommand(&RootOptions{Format: "json"}),
		"--out", filepath.Join(t.TempDir(), "site"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}
