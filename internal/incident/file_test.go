package incident

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAMLList(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.yml", `
- id: inc-1
  type: DATABASE
  priority: CRITICAL
  description: replica lag
- id: inc-2
  type: FRONTEND_UI
  priority: LOW
  affected_files: [web/src/Cart.tsx]
`)

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ProblemDatabase, got[0].Type)
	assert.Equal(t, PriorityCritical, got[0].Priority)
	assert.Equal(t, []string{"web/src/Cart.tsx"}, got[1].AffectedFiles)
}

func TestLoadFileYAMLSingle(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.yaml", "id: inc-3\ntype: SECURITY\npriority: HIGH\n")

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inc-3", got[0].ID)
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "list.json", `[{"id":"a","type":"TESTING","priority":"MEDIUM"},{"id":"b","type":"DEPLOYMENT","priority":"HIGH"}]`)
	one := writeFile(t, dir, "one.json", `{"id":"c","type":"INTEGRATION","priority":"LOW","error_message":"webhook 401"}`)

	got, err := LoadFile(list)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = LoadFile(one)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "webhook 401", got[0].ErrorMessage)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.json", `{"id":`)
	_, err = LoadFile(bad)
	assert.Error(t, err)

	empty := writeFile(t, dir, "empty.yml", "\n")
	got, err := LoadFile(empty)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "incidents/a.yml", "id: a\n")
	b := writeFile(t, dir, "incidents/nested/b.json", "{}")
	writeFile(t, dir, "incidents/notes.txt", "ignore me")

	got, err := ExpandPatterns([]string{
		filepath.Join(dir, "incidents/**/*.json"),
		filepath.Join(dir, "incidents/*.yml"),
		filepath.Join(dir, "incidents/a.yml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)

	_, err = ExpandPatterns([]string{filepath.Join(dir, "nothing/*.yml")})
	assert.Error(t, err)
}
