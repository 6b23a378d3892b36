package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWords(t *testing.T) {
	words, err := ReadWords(strings.NewReader("  alpha\n\nbeta  \r\ngamma"), "")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, words)
}

func TestReadWords_Latin1(t *testing.T) {
	// "café" encoded as ISO-8859-1.
	raw := []byte{'c', 'a', 'f', 0xe9, '\n'}
	words, err := ReadWords(bytes.NewReader(raw), "latin1")
	require.NoError(t, err)
	require.Equal(t, []string{"café"}, words)
}

func TestReadWords_UnknownEncoding(t *testing.T) {
	_, err := ReadWords(strings.NewReader("a"), "no-such-encoding")
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestReadFile_DataFallback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.Mkdir(DataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(DataDir, "names.txt"), []byte("ann\nbob\n"), 0o644))

	words, err := ReadFile("names.txt", "utf-8")
	require.NoError(t, err)
	require.Equal(t, []string{"ann", "bob"}, words)

	require.NoError(t, os.WriteFile("names.txt", []byte("cid\n"), 0o644))
	words, err = ReadFile("names.txt", "")
	require.NoError(t, err)
	require.Equal(t, []string{"cid"}, words)
}

func TestReadFile_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := ReadFile("missing.txt", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cat\ncat\ndog\n"), 0o644))

	c, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.True(t, c.Contains("cat"))
}
