package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/cift/internal/runconfig"
)

func TestRunWithNoSourcesStillProducesStoreAndProgressLog(t *testing.T) {
	resultDir := t.TempDir()
	cfg := &runconfig.Config{
		Alexa: &runconfig.ProductConfig{Enabled: true},
	}

	res, err := Run(cfg, Options{ResultDir: resultDir})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID.String())

	require.FileExists(t, filepath.Join(resultDir, "cift_amazon_alexa.db"))
	require.FileExists(t, filepath.Join(resultDir, "last_progress_log.txt"))

	data, err := os.ReadFile(filepath.Join(resultDir, "last_progress_log.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "run complete")
}

func TestRunSkipsDisabledProduct(t *testing.T) {
	resultDir := t.TempDir()
	cfg := &runconfig.Config{
		Alexa: &runconfig.ProductConfig{Enabled: false},
	}

	_, err := Run(cfg, Options{ResultDir: resultDir})
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(resultDir, "cift_amazon_alexa.db"))
}

func TestRunWalksClientSources(t *testing.T) {
	resultDir := t.TempDir()
	androidRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(androidRoot, "files", "audio_cache"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(androidRoot, "files", "audio_cache", "1.1"),
		[]byte{0xFF, 0xF3, 0x00, 0x00, 0x01, 0x02, 0x03}, 0644))

	cfg := &runconfig.Config{
		Alexa: &runconfig.ProductConfig{
			Enabled: true,
			Client:  &runconfig.ClientConfig{AndroidApp: []string{androidRoot}},
		},
	}

	_, err := Run(cfg, Options{ResultDir: resultDir})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(resultDir, "cift_amazon_alexa.db"))
}

func TestRunRejectsEmptyResultDir(t *testing.T) {
	cfg := &runconfig.Config{Alexa: &runconfig.ProductConfig{Enabled: true}}
	_, err := Run(cfg, Options{})
	require.Error(t, err)
}
