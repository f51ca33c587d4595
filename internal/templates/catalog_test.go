package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestCatalog_List(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "resume.tex", "%resume")
	writeTemplate(t, dir, "cover.tex", "%cover")
	writeTemplate(t, dir, "notes.txt", "ignored")

	ids, err := NewCatalog(dir).List()

	require.NoError(t, err)
	assert.Equal(t, []string{"cover", "resume"}, ids)
}

func TestCatalog_ListMissingDir(t *testing.T) {
	ids, err := NewCatalog(filepath.Join(t.TempDir(), "absent")).List()

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCatalog_Load(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "resume.tex", `\VAR{company}`)

	tmpl, err := NewCatalog(dir).Load("resume")

	require.NoError(t, err)
	assert.Equal(t, "resume", tmpl.ID)
	assert.Equal(t, `\VAR{company}`, tmpl.Source)
}

func TestCatalog_LoadNotFound(t *testing.T) {
	catalog := NewCatalog(t.TempDir())

	_, err := catalog.Load("missing")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestCatalog_LoadRejectsTraversal(t *testing.T) {
	catalog := NewCatalog(t.TempDir())

	for _, id := range []string{"", "../etc/passwd", `..\win`, "a/b"} {
		_, err := catalog.Load(id)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound, "id %q should be rejected", id)
	}
}
