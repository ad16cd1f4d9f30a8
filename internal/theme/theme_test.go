package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := map[string]string{
		"":             "#1890FF",
		"light blue":   "#1890FF",
		"Aurora Green": "#52C41A",
		" dusk ":       "#F5222D",
		"#13c2c2":      "#13C2C2",
	}
	for in, want := range cases {
		got, err := Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestResolveRejectsUnknown(t *testing.T) {
	for _, in := range []string{"ocean", "#123", "1890FF"} {
		_, err := Resolve(in)
		assert.Error(t, err, in)
	}
}

func TestPaletteKeysAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Palette {
		assert.False(t, seen[c.Key], c.Key)
		seen[c.Key] = true
	}
	assert.Len(t, Names(), 8)
}

func TestStylesApplyTheme(t *testing.T) {
	s, err := NewStyles("purple", true)
	require.NoError(t, err)
	assert.Equal(t, "#722ED1", s.Primary)

	require.NoError(t, s.ApplyTheme("sundial"))
	assert.Equal(t, "#FAAD14", s.Primary)

	require.Error(t, s.ApplyTheme("nope"))
	assert.Equal(t, "#FAAD14", s.Primary, "failed apply keeps the previous colour")
}
