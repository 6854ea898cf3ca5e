package media

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNormalizer struct {
	calls int32
	err   error
}

func (c *countingNormalizer) Normalize(_ context.Context, audioPath string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return "", c.err
	}
	return audioPath + ".norm.wav", nil
}

func TestCachedNormalizer_ConvertsOncePerPath(t *testing.T) {
	inner := &countingNormalizer{}
	cached := NewCachedNormalizer(inner)

	for i := 0; i < 5; i++ {
		out, err := cached.Normalize(context.Background(), "/in/message.ogg")
		require.NoError(t, err)
		assert.Equal(t, "/in/message.ogg.norm.wav", out)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
}

func TestCachedNormalizer_ConcurrentRequestsShareOneConversion(t *testing.T) {
	inner := &countingNormalizer{}
	cached := NewCachedNormalizer(inner)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Normalize(context.Background(), "/in/same.ogg")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
}

func TestCachedNormalizer_DistinctPathsConvertSeparately(t *testing.T) {
	inner := &countingNormalizer{}
	cached := NewCachedNormalizer(inner)

	_, err := cached.Normalize(context.Background(), "/in/a.ogg")
	require.NoError(t, err)
	_, err = cached.Normalize(context.Background(), "/in/b.ogg")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
}

func TestCachedNormalizer_ErrorsAreNotCached(t *testing.T) {
	inner := &countingNormalizer{err: errors.New("codec not found")}
	cached := NewCachedNormalizer(inner)

	_, err := cached.Normalize(context.Background(), "/in/broken.ogg")
	require.Error(t, err)

	inner.err = nil
	out, err := cached.Normalize(context.Background(), "/in/broken.ogg")
	require.NoError(t, err)
	assert.Equal(t, "/in/broken.ogg.norm.wav", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
}
