package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/testutil"
)

// workspace is a throwaway data/assets/out layout for one command run.
type workspace struct {
	Data     string
	Assets   string
	Out      string
	Snapshot string
}

// newWorkspace writes both spreadsheets and, when withImages is set, the
// images of the built-in story.
func newWorkspace(t *testing.T, withImages bool) workspace {
	t.Helper()
	t.Setenv("LEDSTORY_CONFIG", "")

	root := t.TempDir()
	ws := workspace{
		Data:     filepath.Join(root, "data"),
		Assets:   filepath.Join(root, "assets"),
		Out:      filepath.Join(root, "out"),
		Snapshot: filepath.Join(root, "data", "market.db"),
	}
	require.NoError(t, os.MkdirAll(ws.Data, 0o755))
	require.NoError(t, os.MkdirAll(ws.Assets, 0o755))
	testutil.WriteHistoryFixture(t, ws.Data)
	testutil.WriteEnergyFixture(t, ws.Data)

	if withImages {
		for _, name := range []string{"icons.png", "img1.jpg", "img2.jpg", "img3.jpg"} {
			require.NoError(t, os.WriteFile(filepath.Join(ws.Assets, name), []byte("img:"+name), 0o644))
		}
	}
	return ws
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
