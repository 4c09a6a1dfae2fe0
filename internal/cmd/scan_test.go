package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/msgbus"
)

// writeConfig writes a minimal config pointing the cache at a temp dir so
// tests never touch the real user cache.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("cache_dir: %q\nlog_level: error\n", filepath.Join(dir, "cache"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanCommandEndToEnd(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.md"), []byte("# hi\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"scan", root, "--config", writeConfig(t)})

	require.NoError(t, cmd.Execute())
}

func TestScanCommandMissingRoot(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"scan", filepath.Join(t.TempDir(), "absent"), "--config", writeConfig(t)})

	if err := cmd.Execute(); err == nil {
		t.Error("scan of a missing directory should fail")
	}
}

func TestPackCommandEndToEnd(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha\n"), 0o644))
	out := filepath.Join(t.TempDir(), "bundle.md")

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"pack", root, "-o", out, "--config", writeConfig(t)})

	require.NoError(t, cmd.Execute())
	require.FileExists(t, out)
}

func TestPrintScanResultListsDepthExcluded(t *testing.T) {
	// printScanResult writes directly; route through a pipe to capture
	r, w, err := os.Pipe()
	require.NoError(t, err)

	sc := msgbus.ScanComplete{
		Records: []models.FileRecord{
			{Name: "src", Kind: models.KindFolder, RelPath: "src/"},
			{Name: "main.go", Kind: models.KindFile, Size: 12, RelPath: "src/main.go"},
		},
		DepthExcluded: map[string]struct{}{"deep/": {}},
	}
	printScanResult(w, sc)
	w.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	output := buf.String()
	require.Contains(t, output, "src/")
	require.Contains(t, output, "src/main.go")
	require.Contains(t, output, "deep/")
}
