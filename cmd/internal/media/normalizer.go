// Package media shells out to ffmpeg for the two audio transformations the
// pipeline needs: normalizing incoming voice messages to the canonical
// format, and concatenating synthesized clips into one track.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Normalizer converts an arbitrary audio file into the canonical format all
// downstream stages assume (mono 16 kHz WAV) and returns the converted path.
type Normalizer interface {
	Normalize(ctx context.Context, audioPath string) (string, error)
}

// FFmpegNormalizer implements Normalizer with an ffmpeg subprocess.
type FFmpegNormalizer struct {
	tmpDir string
}

// NewFFmpegNormalizer writes converted files into tmpDir (os.TempDir when
// empty).
func NewFFmpegNormalizer(tmpDir string) *FFmpegNormalizer {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &FFmpegNormalizer{tmpDir: tmpDir}
}

// Normalize runs: ffmpeg -y -i input -ac 1 -ar 16000 -f wav output
func (n *FFmpegNormalizer) Normalize(ctx context.Context, audioPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	out := filepath.Join(n.tmpDir, base+"_norm_16k.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", audioPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w (%s)", err, lastLine(stderr.String()))
	}
	return out, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

// CachedNormalizer guarantees the exactly-once conversion contract: the first
// request for a source path converts it, concurrent duplicates share that
// in-flight conversion, later requests hit the cache.
type CachedNormalizer struct {
	inner Normalizer
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]string // source path -> canonical path
}

// NewCachedNormalizer wraps inner with per-path caching.
func NewCachedNormalizer(inner Normalizer) *CachedNormalizer {
	return &CachedNormalizer{
		inner: inner,
		cache: make(map[string]string),
	}
}

// Normalize returns the cached canonical path or converts once per source
// path. Errors are not cached so a transient ffmpeg failure can be retried.
func (c *CachedNormalizer) Normalize(ctx context.Context, audioPath string) (string, error) {
	c.mu.RLock()
	cached, ok := c.cache[audioPath]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	out, err, _ := c.group.Do(audioPath, func() (interface{}, error) {
		converted, err := c.inner.Normalize(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[audioPath] = converted
		c.mu.Unlock()
		return converted, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
