package textextractor

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

func minimalDocx(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("<xml/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetector(t *testing.T) {
	d := Detector{}

	ft, err := d.Detect([]byte("%PDF-1.7\n%âãÏÓ\n1 0 obj"))
	require.NoError(t, err)
	assert.Equal(t, domain.FilePDF, ft)

	ft, err = d.Detect(minimalDocx(t))
	require.NoError(t, err)
	assert.Equal(t, domain.FileDOCX, ft)

	_, err = d.Detect([]byte("just some plain text"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = d.Detect([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}
