package tracelog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pppos/pppos/internal/tracelog"
)

func TestOpenWithEmptyDirDisablesWriting(t *testing.T) {
	l, err := tracelog.Open("")
	require.NoError(t, err)
	require.NoError(t, l.Write(tracelog.RX, 0xc021, 10, true))
}

func TestWriteCreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "traces")
	l, err := tracelog.Open(sub)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Write(tracelog.RX, 0xc021, 20, true))
	require.NoError(t, l.Write(tracelog.TX, 0x0021, 40, false))

	entries, err := os.ReadDir(sub)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	body, err := os.ReadFile(filepath.Join(sub, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(body), "timestamp,direction,protocol,length,accepted")
	assert.Contains(t, string(body), "RX,0xc021,20,true")
	assert.Contains(t, string(body), "TX,0x0021,40,false")
}

func TestOpenRejectsFileInPlaceOfDirectory(t *testing.T) {
	dir := t.TempDir()
	conflict := filepath.Join(dir, "notadir")
	require.NoError(t, os.WriteFile(conflict, []byte("x"), 0o644))

	_, err := tracelog.Open(conflict)
	assert.Error(t, err)
}
