package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  mode: test
database:
  driver: sqlite
  sqlite_path: ` + filepath.Join(dir, "library.db") + `
log:
  level: error
  output: stderr
library:
  loan_period_days: 14
  fine_per_day: "1.00"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, configPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, cfg, "", "auth", "hash-password", "secret")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))

	out, err = execute(t, cfg, "from-stdin\n", "auth", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))
}

func TestBookAndLoanCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, cfg, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "迁移完成")

	out, err = execute(t, cfg, "", "book", "add",
		"--isbn", "978-0-306-40615-7", "--title", "Go", "--author", "Donovan", "--copies", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "9780306406157")

	_, err = execute(t, cfg, "", "book", "add", "--isbn", "12345", "--title", "Bad", "--author", "X")
	assert.Error(t, err)

	_, err = execute(t, cfg, "", "patron", "register",
		"--first-name", "Ada", "--last-name", "Lovelace", "--email", "ada@example.com")
	require.NoError(t, err)

	out, err = execute(t, cfg, "", "loan", "borrow", "1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "借阅 #1")

	_, err = execute(t, cfg, "", "loan", "borrow", "1", "1")
	assert.Error(t, err)

	out, err = execute(t, cfg, "", "book", "search", "donovan")
	require.NoError(t, err)
	assert.Contains(t, out, "0/1")

	out, err = execute(t, cfg, "", "loan", "return", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "RETURNED")

	out, err = execute(t, cfg, "", "report", "inventory")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_copies": 1`)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, s := range []string{"0", "-1", "abc"} {
		_, err := parseID(s)
		assert.Error(t, err, s)
	}
}
