package crash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// archiveDump compresses a minidump and its .extra sidecar into dir and
// removes the originals. It returns the path of the compressed dump.
func archiveDump(path string, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	dst, err := compressFile(path, dir)
	if err != nil {
		return "", err
	}

	extra := strings.TrimSuffix(path, ".dmp") + ".extra"
	if _, err := os.Stat(extra); err == nil {
		if _, err := compressFile(extra, dir); err != nil {
			return "", err
		}
		_ = os.Remove(extra)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove archived minidump: %w", err)
	}
	return dst, nil
}

func compressFile(src string, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src)+".zst")
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to compress %s: %w", src, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to compress %s: %w", src, err)
	}
	return dst, nil
}
