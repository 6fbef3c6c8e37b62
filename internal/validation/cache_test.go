package validation

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/namespace"
)

func TestCacheReusesCompiledValidator(t *testing.T) {
	c := NewCache(4, Options{})
	ns := namespace.MustParse("app.items")

	hits := testutil.ToFloat64(metrics.ValidatorCacheHits)
	misses := testutil.ToFloat64(metrics.ValidatorCacheMisses)

	first, err := c.Get(ns, tagsValidator)
	require.NoError(t, err)
	second, err := c.Get(ns, doc(`{"tags": {"$_internalSchemaMinItems": 2, "$_internalSchemaUniqueItems": true}}`))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.ValidatorCacheHits))
	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.ValidatorCacheMisses))
}

func TestCacheKeysByNamespaceAndValidator(t *testing.T) {
	c := NewCache(4, Options{})
	a := namespace.MustParse("app.a")
	b := namespace.MustParse("app.b")

	va, err := c.Get(a, tagsValidator)
	require.NoError(t, err)
	vb, err := c.Get(b, tagsValidator)
	require.NoError(t, err)
	assert.NotSame(t, va, vb)

	changed, err := c.Get(a, doc(`{"tags": {"$_internalSchemaMaxItems": 1}}`))
	require.NoError(t, err)
	assert.NotSame(t, va, changed)
	assert.Equal(t, 3, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, Options{})
	ns1 := namespace.MustParse("app.one")
	ns2 := namespace.MustParse("app.two")
	ns3 := namespace.MustParse("app.three")

	v1, err := c.Get(ns1, tagsValidator)
	require.NoError(t, err)
	_, err = c.Get(ns2, tagsValidator)
	require.NoError(t, err)

	// Touch ns1 so ns2 becomes the eviction candidate.
	again, err := c.Get(ns1, tagsValidator)
	require.NoError(t, err)
	assert.Same(t, v1, again)

	_, err = c.Get(ns3, tagsValidator)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	again, err = c.Get(ns1, tagsValidator)
	require.NoError(t, err)
	assert.Same(t, v1, again)
}

func TestCacheDoesNotStoreCompileErrors(t *testing.T) {
	c := NewCache(2, Options{})
	_, err := c.Get(namespace.MustParse("app.bad"), doc(`{"$isolated": 1, "x": {"$_internalSchemaObjectMatch": {"$isolated": 1}}}`))
	require.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestCacheEmptyValidator(t *testing.T) {
	c := NewCache(2, Options{})
	ns := namespace.MustParse("app.any")

	v1, err := c.Get(ns, nil)
	require.NoError(t, err)
	v2, err := c.Get(ns, nil)
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.True(t, v1.Matches(doc(`{"x": 1}`)))
}

func TestCacheConcurrentGet(t *testing.T) {
	c := NewCache(8, Options{})
	names := []string{"app.a", "app.b", "app.c", "app.d"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns := namespace.MustParse(names[i%len(names)])
			v, err := c.Get(ns, tagsValidator)
			if assert.NoError(t, err) {
				assert.True(t, v.Matches(doc(`{"tags": [1, 2]}`)))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(names), c.Len())
}
