package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FFmpegConcatenator joins clips with the ffmpeg concat demuxer. Plain
// sequential append: no cross-fade, no silence insertion, no time-stretch.
type FFmpegConcatenator struct {
	tmpDir string
}

// NewFFmpegConcatenator writes its temporary list files into tmpDir
// (os.TempDir when empty).
func NewFFmpegConcatenator(tmpDir string) *FFmpegConcatenator {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &FFmpegConcatenator{tmpDir: tmpDir}
}

// Concat runs: ffmpeg -y -f concat -safe 0 -i list.txt -c copy outPath
func (c *FFmpegConcatenator) Concat(ctx context.Context, clipPaths []string, outPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	var list strings.Builder
	for _, p := range clipPaths {
		// concat demuxer quoting: single quotes, embedded ones escaped
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&list, "file '%s'\n", escaped)
	}

	listPath := filepath.Join(c.tmpDir, "concat_"+uuid.NewString()+".txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w (%s)", err, lastLine(stderr.String()))
	}
	return nil
}
