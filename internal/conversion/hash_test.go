package conversion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
)

func TestHashValueNormalizesBeforeHashing(t *testing.T) {
	const want = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

	assert.Equal(t, want, conversion.HashValue("test@example.com"))
	assert.Equal(t, want, conversion.HashValue("  Test@Example.COM "))
	assert.Empty(t, conversion.HashValue("   "))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "16502530000", conversion.NormalizePhone("+1 (650) 253-0000", "BD"))
	assert.Equal(t, "16502530000", conversion.NormalizePhone("650-253-0000", "US"))
	assert.Equal(t, "123", conversion.NormalizePhone("+12-3", "BD"))
	assert.Empty(t, conversion.NormalizePhone("", "BD"))
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"  Mohammad  Abdul   Karim ", "Mohammad", "Karim"},
		{"Cher", "Cher", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := conversion.SplitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
