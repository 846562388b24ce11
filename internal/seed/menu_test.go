package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMenu(t *testing.T) {
	data := []byte(`
items:
  - name: Golden Sunset Salmon
    description: Grilled salmon with citrus glaze
    price: 2400
    category: Seafood
    available: true
    is_signature: true
    tags: [Premium, Heart Healthy]
`)
	items, err := ParseMenu(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2400), items[0].Price)
	assert.True(t, items[0].IsSignature)
	assert.Equal(t, []string{"Premium", "Heart Healthy"}, items[0].Tags)
}

func TestParseMenuErrors(t *testing.T) {
	_, err := ParseMenu([]byte("items:\n  - name: Soup\n"))
	assert.Error(t, err)

	_, err = ParseMenu([]byte("items:\n  - name: Soup\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadMenuShippedSeed(t *testing.T) {
	items, err := LoadMenu(filepath.Join("..", "..", "configs", "menu.yaml"))
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "Butterfly Garden Special Pasta", items[0].Name)
	assert.Equal(t, "Crispy Chicken Burger", items[3].Name)
}

func TestLoadMenuMissingFile(t *testing.T) {
	_, err := LoadMenu(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
