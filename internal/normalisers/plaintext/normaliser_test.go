package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, "plaintext", normaliser.Name())
}

func TestSupportedExtensions(t *testing.T) {
	exts := New().SupportedExtensions()
	assert.Contains(t, exts, ".txt")
	for _, ext := range exts {
		assert.True(t, strings.HasPrefix(ext, "."), ext)
	}
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	path := writeFile(t, "company_profile.txt", "This is plain text content.")

	docs, err := New().Normalise(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, domain.DocumentID(path, 0), doc.ID)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, 0, doc.Page)
	assert.Equal(t, "This is plain text content.", doc.Content)
	assert.Equal(t, "company profile", doc.Metadata["title"])
	assert.Equal(t, "plaintext", doc.Metadata["extractor"])
}

func TestNormalise_BlankFile(t *testing.T) {
	path := writeFile(t, "blank.txt", "  \n\t\n")

	docs, err := New().Normalise(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNormalise_MissingFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestNormalise_LineEndings(t *testing.T) {
	path := writeFile(t, "crlf.txt", "one\r\n\r\ntwo\rthree")

	docs, err := New().Normalise(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one\n\ntwo\nthree", docs[0].Content)
}

func TestNormalise_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "latin1.txt", "caf\xe9 au lait")

	docs, err := New().Normalise(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "caf� au lait", docs[0].Content)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "日本語テキスト 🎉 émojis"
	path := writeFile(t, "unicode.txt", content)

	docs, err := New().Normalise(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, content, docs[0].Content)
}

func TestNormalise_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, writeFile(t, "a.txt", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/docs/annual-report_2024.txt", "annual report 2024"},
		{"notes.txt", "notes"},
		{`C:\docs\my_file.txt`, "my file"},
		{".hidden", ".hidden"},
		{"no_extension", "no extension"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Title(tc.path))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
