package flowfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFlows = []float64{0, 0.25, 1.5, 0.0001, 3}

func TestSaveLoad_Npy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flows.npy")
	require.NoError(t, Save(path, sampleFlows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, npyMagic))
	// Header is padded so the data starts on a 64-byte boundary.
	assert.Equal(t, 0, (len(raw)-4*len(sampleFlows))%64)

	got, err := Load(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sampleFlows, got, 1e-7)
}

func TestSaveLoad_Raw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.bin")
	require.NoError(t, Save(path, sampleFlows))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4*len(sampleFlows)), info.Size())

	got, err := Load(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sampleFlows, got, 1e-7)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.npy"))
	require.ErrorIs(t, err, domain.ErrMissingArtifact)
}

func TestDecode_NpyVersion2(t *testing.T) {
	var body bytes.Buffer
	require.NoError(t, EncodeRaw(&body, []float64{1, 2}))

	dict := "{'descr': '<f4', 'fortran_order': False, 'shape': (2,), }\n"
	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{2, 0, byte(len(dict)), 0, 0, 0})
	buf.WriteString(dict)
	buf.Write(body.Bytes())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		dict string
	}{
		{"float64 dtype", "{'descr': '<f8', 'fortran_order': False, 'shape': (1,), }\n"},
		{"fortran order", "{'descr': '<f4', 'fortran_order': True, 'shape': (1,), }\n"},
		{"no shape", "{'descr': '<f4', 'fortran_order': False, }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.Write(npyMagic)
			buf.Write([]byte{1, 0, byte(len(tt.dict)), 0})
			buf.WriteString(tt.dict)
			buf.Write(make([]byte, 8))

			_, err := Decode(&buf)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDecode_TruncatedRaw(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0, 0, 0, 0, 1}))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
