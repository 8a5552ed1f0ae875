package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codii.log")

	logger, cleanup, err := Setup(Config{
		Level:         "debug",
		FilePath:      path,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
	})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello", "key", "value")

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestRotatingWriterRotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codii.log")

	w, err := NewRotatingWriter(path, 0, 2) // maxSize 0 forces rotation on every write
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first line\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second line\n"))
	require.NoError(t, err)

	_, statErr := os.Stat(path + ".1")
	require.NoError(t, statErr)
}
