package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestTextLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.txt")
	require.NoError(t, os.WriteFile(path, []byte("Reset your password."), 0644))

	docs, err := NewTextLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "faq.txt", docs[0].Source)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, "Reset your password.", docs[0].Text)
}

func TestTextLoader_RejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0xc3}, 0644))

	_, err := NewTextLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestTextLoader_Supports(t *testing.T) {
	l := NewTextLoader()
	assert.True(t, l.Supports("a/b/guide.MD"))
	assert.True(t, l.Supports("notes.txt"))
	assert.False(t, l.Supports("manual.pdf"))
}

func TestPDFLoader_SplitsPages(t *testing.T) {
	runner := &mockRunner{output: []byte("Page one text\n\fPage two text\n\f\f  \fPage five\n\f")}
	l := NewPDFLoaderWithRunner(runner)

	docs, err := l.Load(context.Background(), "/data/manual.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "/data/manual.pdf", runner.args[len(runner.args)-2])
	assert.Equal(t, "-", runner.args[len(runner.args)-1])

	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, 2, docs[1].Page)
	assert.Equal(t, 5, docs[2].Page)
	assert.Equal(t, "manual.pdf", docs[2].Source)
	assert.Contains(t, docs[1].Text, "Page two")
}

func TestPDFLoader_RunnerError(t *testing.T) {
	l := NewPDFLoaderWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	_, err := l.Load(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext crashed")
}

func TestPDFLoader_NoText(t *testing.T) {
	l := NewPDFLoaderWithRunner(&mockRunner{output: []byte("\f \f")})

	_, err := l.Load(context.Background(), "scanned.pdf")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewTextLoader(), NewPDFLoaderWithRunner(&mockRunner{output: []byte("pdf body")}))

	assert.True(t, r.Supports("x.pdf"))
	assert.False(t, r.Supports("x.docx"))

	docs, err := r.Load(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf body", docs[0].Text)

	_, err = r.Load(context.Background(), "x.docx")
	assert.Error(t, err)
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
