package progresslog

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOpenWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_progress_log.txt")
	l, err := Open(path, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "run:")
	require.Contains(t, string(data), "Version:")
	require.Contains(t, string(data), "OS:")
}

func TestLogfFormatsExactLineShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_progress_log.txt")
	l, err := Open(path, uuid.New(), nil)
	require.NoError(t, err)
	l.Infof("cloudharvest", "downloaded %d bytes", 42)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	re := regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}  cloudharvest  INFO  downloaded 42 bytes`)
	require.Regexp(t, re, string(data))
}

func TestExtraSinkReceivesRFC5424Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_progress_log.txt")
	var buf bytes.Buffer
	l, err := Open(path, uuid.New(), &buf)
	require.NoError(t, err)
	l.Errorf("clientharvest", "walk failed: %v", os.ErrNotExist)
	require.NoError(t, l.Close())

	require.Contains(t, buf.String(), "clientharvest")
	require.Contains(t, buf.String(), "walk failed")
}

func TestComponentSplitsEmbeddedLevelPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_progress_log.txt")
	l, err := Open(path, uuid.New(), nil)
	require.NoError(t, err)

	logf := l.Component("cloudharvest")
	logf("WARN  verify %s: %v", "foo.db", os.ErrPermission)
	logf("no level prefix at all")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "cloudharvest  WARN  verify foo.db:")
	require.Contains(t, string(data), "cloudharvest  INFO  no level prefix at all")
}

func TestCopyToWritesResultDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "last_progress_log.txt")
	l, err := Open(path, uuid.New(), nil)
	require.NoError(t, err)
	l.Infof("orchestrator", "run complete")

	resultDir := t.TempDir()
	require.NoError(t, l.CopyTo(resultDir))
	require.NoError(t, l.Close())

	copied, err := os.ReadFile(filepath.Join(resultDir, "last_progress_log.txt"))
	require.NoError(t, err)
	require.Contains(t, string(copied), "run complete")
}

func TestCloseIsIdempotentAndStopsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_progress_log.txt")
	l, err := Open(path, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	l.Infof("x", "should not be written")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "should not be written")
}
