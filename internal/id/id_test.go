package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := Generate(PrefixNote)
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate ID: %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixNote, PrefixTag, PrefixToken} {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(v, prefix+"-"))
			nid := strings.TrimPrefix(v, prefix+"-")
			assert.Len(t, nid, 21)

			for _, r := range nid {
				urlSafe := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
				assert.True(t, urlSafe, "character %c is not URL-safe", r)
			}
		})
	}
}

func TestMustGenerate(t *testing.T) {
	v := MustGenerate(PrefixTag)
	assert.True(t, strings.HasPrefix(v, "tag-"))
	assert.Len(t, v, len("tag-")+21)
}
