package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		product  CanonicalProduct
		expected string
	}{
		{
			name: "basic name and brand",
			product: CanonicalProduct{
				Identity: Identity{Name: "Coca Cola", Brand: "Coca-Cola Company"},
			},
			expected: "coca cola|coca-cola company",
		},
		{
			name: "whitespace and case do not matter",
			product: CanonicalProduct{
				Identity: Identity{Name: "  COCA COLA  ", Brand: "coca-cola company"},
			},
			expected: "coca cola|coca-cola company",
		},
		{
			name: "only first brand segment counts",
			product: CanonicalProduct{
				Identity: Identity{Name: "Widget", Brand: "Acme, Acme Holdings, Acme Global"},
			},
			expected: "widget|acme",
		},
		{
			name: "empty brand still participates",
			product: CanonicalProduct{
				Identity: Identity{Name: "Widget"},
			},
			expected: "widget|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.product.Fingerprint())
		})
	}
}

func TestDeduplicate(t *testing.T) {
	a := CanonicalProduct{ID: "1", Identity: Identity{Name: "Coca Cola", Brand: "Coca-Cola"}}
	aDup := CanonicalProduct{ID: "2", Identity: Identity{Name: "  coca cola ", Brand: "COCA-COLA, Inc."}}
	b := CanonicalProduct{ID: "3", Identity: Identity{Name: "Pepsi", Brand: "PepsiCo"}}
	c := CanonicalProduct{ID: "4", Identity: Identity{Name: "Coca Cola", Brand: "Other Brand"}}

	t.Run("keeps first occurrence and preserves order", func(t *testing.T) {
		out := Deduplicate([]CanonicalProduct{a, b, aDup, c})

		require.Len(t, out, 3)
		assert.Equal(t, "1", out[0].ID)
		assert.Equal(t, "3", out[1].ID)
		assert.Equal(t, "4", out[2].ID)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Deduplicate([]CanonicalProduct{a, aDup, b})
		twice := Deduplicate(once)

		assert.Equal(t, once, twice)
	})

	t.Run("empty input", func(t *testing.T) {
		out := Deduplicate(nil)

		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("same name different brand survives", func(t *testing.T) {
		out := Deduplicate([]CanonicalProduct{a, c})

		assert.Len(t, out, 2)
	})
}
