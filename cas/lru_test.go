package cas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/solidscope/interp"
	"github.com/timewinder-dev/solidscope/vm"
)

func putFrame(t *testing.T, c CAS, s *interp.Session, x float64) Hash {
	t.Helper()
	f := interp.NewRootFrame(s)
	f.SetVariable("x", vm.NumberValue(x))
	h, err := Decompose(c, f)
	require.NoError(t, err)
	return h
}

func TestLRUCache_BasicOperation(t *testing.T) {
	s := interp.NewSession("")
	cache := NewLRUCache(NewMemoryCAS(), 3)

	var hashes []Hash
	for i := 0; i < 4; i++ {
		hashes = append(hashes, putFrame(t, cache, s, float64(i)))
	}
	for i, h := range hashes {
		f, err := RecomposeFrame(cache, h, s)
		require.NoError(t, err)
		x, _ := f.LocalVariables().Get("x")
		assert.Equal(t, vm.NumberValue(i), x)
	}
	stats := cache.Stats()
	assert.Equal(t, 3, stats.Size, "oldest entry evicted")
	assert.Equal(t, 4, stats.Misses)

	_, err := RecomposeFrame(cache, hashes[3], s)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Stats().Hits)

	_, err = RecomposeFrame(cache, hashes[0], s)
	require.NoError(t, err, "evicted entries are re-read from the underlying store")
	assert.Equal(t, 5, cache.Stats().Misses)
}

func TestLRUCache_DefaultSize(t *testing.T) {
	cache := NewLRUCache(NewMemoryCAS(), 0)
	assert.Equal(t, 1000, cache.Stats().MaxSize)
	assert.False(t, cache.Has(Hash(1)))
}
