package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaultTemplate(t *testing.T) {
	b, err := Embedded{}.ReadTemplate("")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestEmbeddedMissing(t *testing.T) {
	_, err := Embedded{}.ReadTemplate("nope.pdf")
	assert.ErrorIs(t, err, ErrTemplateMissing)
}

func TestDirReadsRelativeAndAbsolute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 test"), 0o600))

	b, err := Dir{Root: dir}.ReadTemplate("custom.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(b))

	b, err = Dir{}.ReadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 test", string(b))
}

func TestDirMissing(t *testing.T) {
	_, err := Dir{Root: t.TempDir()}.ReadTemplate("absent.pdf")
	assert.ErrorIs(t, err, ErrTemplateMissing)
}

func TestForPath(t *testing.T) {
	assert.IsType(t, Embedded{}, ForPath(""))
	assert.IsType(t, Dir{}, ForPath("/srv/templates/cert.pdf"))
}
