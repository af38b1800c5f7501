package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressHeader(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(ctx)))

	// A value of the wrong type is ignored
	wrong := context.WithValue(ctx, suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(wrong))
}

func TestAnalysisID(t *testing.T) {
	ctx := context.Background()

	_, ok := getAnalysisID(ctx)
	assert.False(t, ok)

	id, ok := getAnalysisID(withAnalysisID(ctx, 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	// The none backend hands out ID 0, which means untracked
	_, ok = getAnalysisID(withAnalysisID(ctx, 0))
	assert.False(t, ok)
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withAnalysisID(WithSuppressHeader(context.Background()), 12345)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			assert.True(t, shouldSuppressHeader(ctx), "goroutine %d", i)
			id, ok := getAnalysisID(ctx)
			assert.True(t, ok, "goroutine %d", i)
			assert.Equal(t, int64(12345), id, "goroutine %d", i)
		})
	}
	wg.Wait()
}
