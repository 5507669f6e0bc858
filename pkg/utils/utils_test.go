package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTownID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateTownID()
		assert.Len(t, id, townIDLength)
		for _, r := range id {
			assert.Contains(t, townIDAlphabet, string(r))
		}
		seen[id] = true
	}
	// 100 draws from a 16^8 space should not all collide
	assert.Greater(t, len(seen), 1)
}

func TestGenerateTownPassword(t *testing.T) {
	p1 := GenerateTownPassword()
	p2 := GenerateTownPassword()
	assert.NotEmpty(t, p1)
	assert.NotEqual(t, p1, p2)
	assert.GreaterOrEqual(t, len(p1), 24)
}

func TestGeneratePlayerID_Unique(t *testing.T) {
	assert.NotEqual(t, GeneratePlayerID(), GeneratePlayerID())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello\x00 "))
	assert.Equal(t, "a\nb", SanitizeString("a\nb"))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty("   "))
	assert.False(t, IsEmpty(" x "))
}

func TestMaskSensitive(t *testing.T) {
	masked := MaskSensitive("supersecret", 3)
	assert.True(t, strings.HasPrefix(masked, "sup"))
	assert.NotContains(t, masked, "secret")
	assert.Equal(t, "**", MaskSensitive("ab", 3))
}
