package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/config"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "link.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	p := writeTemp(t, "device: /dev/ttyUSB0\n")
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 64, cfg.QueueDepth)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeTemp(t, "device: /dev/ttyUSB1\nbaud: 9600\nqueue_depth: 8\nacfc: true\npfc: true\n")
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, 8, cfg.QueueDepth)
	assert.True(t, cfg.ACFC)
	assert.True(t, cfg.PFC)
}

func TestLoadMissingDeviceIsRejected(t *testing.T) {
	p := writeTemp(t, "baud: 9600\n")
	_, err := config.Load(p)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeACCMChars(t *testing.T) {
	p := writeTemp(t, "device: /dev/ttyUSB0\naccm:\n  chars: [5, 300]\n")
	_, err := config.Load(p)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
