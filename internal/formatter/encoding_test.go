package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCharset(t *testing.T) {
	c, err := LookupCharset("")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", c.Name())

	c, err = LookupCharset("latin1")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", c.Name())

	_, err = LookupCharset("klingon")
	assert.Error(t, err)
}

func TestCharsetRoundTrip(t *testing.T) {
	c, err := LookupCharset("windows-1252")
	require.NoError(t, err)

	text, err := c.Decode([]byte("caf\xe9\n"))
	require.NoError(t, err)
	assert.Equal(t, "café\n", text)

	out, err := c.Encode(text)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9\n"), out)
}

func TestCharsetUTF8Invalid(t *testing.T) {
	c, err := LookupCharset("utf-8")
	require.NoError(t, err)

	_, err = c.Decode([]byte("line one\ncaf\xe9 au lait\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.Contains(t, err.Error(), "cellfmt uses UTF-8 by default.")
	assert.Contains(t, err.Error(), "At line 2 col 4")
	assert.Contains(t, err.Error(), "windows-1252")
}

func TestCharsetKeepsRealReplacementCharacter(t *testing.T) {
	c, err := LookupCharset("utf-8")
	require.NoError(t, err)
	text, err := c.Decode([]byte("a�b"))
	require.NoError(t, err)
	assert.Equal(t, "a�b", text)
}

func TestCharsetEncodeUnrepresentable(t *testing.T) {
	c, err := LookupCharset("windows-1252")
	require.NoError(t, err)
	_, err = c.Encode("日本")
	assert.ErrorIs(t, err, ErrEncoding)
}
