package rootcmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("JASKBILLS_CONFIG", "")
	t.Setenv("JASKBILLS_SELECTION_DEFAULT", "")
	path := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`
[database]
path = %q

[providers]
path = %q

[selection]
path = %q

[ui]
timezone = "UTC"
`, filepath.Join(dir, "data", "bills.db"), filepath.Join(dir, "providers.toml"), filepath.Join(dir, "selection.json"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "providers.toml"), []byte(`
version = 1

[provider.westpac]
name = "Westpac"
delimiter = ","
has_header = true
date_format = "02/01/2006"
date_col = 1
amount_col = 2
desc_col = 3
`), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithLogs(t, args...)
	return out, err
}

func executeWithLogs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := New()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func TestSelectPersistsAcrossRuns(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "select")
	require.NoError(t, err)
	require.Equal(t, "none\n", out)

	_, err = execute(t, "--config", cfg, "select", "azn")
	require.ErrorContains(t, err, `did you mean "anz"`)

	out, err = execute(t, "--config", cfg, "select", "ANZ")
	require.NoError(t, err)
	require.Contains(t, out, "Selected anz (ANZ)")

	out, err = execute(t, "--config", cfg, "providers")
	require.NoError(t, err)
	require.Regexp(t, `\*\s+anz\s+ANZ`, out)
	require.Contains(t, out, "westpac")

	out, err = execute(t, "--config", cfg, "select")
	require.NoError(t, err)
	require.Equal(t, "anz\n", out)

	_, err = execute(t, "--config", cfg, "select", "--clear", "anz")
	require.Error(t, err)
	_, err = execute(t, "--config", cfg, "select", "--clear")
	require.NoError(t, err)
	out, err = execute(t, "--config", cfg, "select")
	require.NoError(t, err)
	require.Equal(t, "none\n", out)
}

func TestSelectClearOverridesDefault(t *testing.T) {
	cfg := writeConfig(t)
	t.Setenv("JASKBILLS_SELECTION_DEFAULT", "anz")

	out, err := execute(t, "--config", cfg, "select")
	require.NoError(t, err)
	require.Equal(t, "anz\n", out)

	_, err = execute(t, "--config", cfg, "select", "cba")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfg, "select", "--clear")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfg, "select")
	require.NoError(t, err)
	require.Equal(t, "none\n", out)
}

func TestImportAndRules(t *testing.T) {
	cfg := writeConfig(t)
	csvPath := filepath.Join(t.TempDir(), "ANZ 040226.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("3/02/2026,203.92,PAYMENT THANKYOU 528417\n2/02/2026,-20,DAN MURPHY'S\n"), 0o600))

	_, err := execute(t, "--config", cfg, "import", csvPath)
	require.ErrorContains(t, err, "no provider selected")

	out, err := execute(t, "--config", cfg, "import", "--provider", "anz", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "ANZ 040226.csv (anz): imported 2, skipped 0, categorised 1")

	_, err = execute(t, "--config", cfg, "select", "anz")
	require.NoError(t, err)
	out, err = execute(t, "--config", cfg, "import", "--account", "ANZ", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "imported 0, skipped 2")

	out, err = execute(t, "--config", cfg, "rules")
	require.NoError(t, err)
	require.Contains(t, out, "PAYMENT THANKYOU")

	out, err = execute(t, "--config", cfg, "rules", "--provider", "westpac")
	require.NoError(t, err)
	require.Equal(t, "No rules\n", out)

	_, err = execute(t, "--config", cfg, "reset")
	require.ErrorContains(t, err, "--yes")
	out, err = execute(t, "--config", cfg, "reset", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Database reset")

	out, err = execute(t, "--config", cfg, "import", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "imported 2")
}

func TestBadLogLevel(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, "--config", cfg, "--log-level", "loud", "providers")
	require.ErrorContains(t, err, "log level")
}

func TestDebugLogReportsSchema(t *testing.T) {
	cfg := writeConfig(t)
	_, logs, err := executeWithLogs(t, "--config", cfg, "--log-level", "debug", "providers")
	require.NoError(t, err)
	require.Contains(t, logs, "database ready")
	require.Contains(t, logs, "schema=2")
}
