package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "BTC", SanitizeToken("  BTC  "))
	assert.Equal(t, "eth", SanitizeToken("eth"), "case must be preserved")
	assert.Equal(t, "SOL", SanitizeToken("SOL\x00\x1b"))
	assert.Equal(t, "", SanitizeToken("   "))

	long := strings.Repeat("A", 64)
	assert.Len(t, SanitizeToken(long), 32)
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", SanitizeForFormulaInjection("=SUM(A1)"))
	assert.Equal(t, "'+1+1", SanitizeForFormulaInjection("+1+1"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "BTC", SanitizeForFormulaInjection("BTC"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x07c"))
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"))
}
