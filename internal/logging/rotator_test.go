package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewCreatesDirAndTodaysFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	r, err := New(dir, false, newTestLogger())
	require.NoError(t, err)
	defer r.Close()

	require.DirExists(t, dir)
	_, err = r.Write([]byte("hello\n"))
	require.NoError(t, err)
}

func TestWriteAfterCloseFails(t *testing.T) {
	r, err := New(t.TempDir(), false, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("x"))
	require.Error(t, err)
}

func TestCleanupRemovesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, false, newTestLogger())
	require.NoError(t, err)
	defer r.Close()

	oldFile := filepath.Join(dir, "go1090_2020-01-01.log")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	oldTime := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	require.NoError(t, r.Cleanup(5))
	require.NoFileExists(t, oldFile)
}

func TestCleanupRejectsNonPositiveMaxDays(t *testing.T) {
	r, err := New(t.TempDir(), false, newTestLogger())
	require.NoError(t, err)
	defer r.Close()

	require.Error(t, r.Cleanup(0))
	require.Error(t, r.Cleanup(-1))
}

func TestCompressMovesContentIntoGzipAndRemovesSource(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, false, newTestLogger())
	require.NoError(t, err)
	defer r.Close()

	date := "2022-06-15"
	src := r.pathFor(date)
	require.NoError(t, os.WriteFile(src, []byte("line one\nline two\n"), 0o644))

	r.compress(date)

	require.NoFileExists(t, src)
	require.FileExists(t, src+".gz")
}
