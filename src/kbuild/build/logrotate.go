package build

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
)

// DefaultLogRetention is how many uncompressed build logs are kept
const DefaultLogRetention = 10

// CompressOldLogs xz-compresses build logs in dir beyond the retention
// count, newest kept uncompressed. Compression failures only warn; log
// retention never fails a build.
func CompressOldLogs(dir string, retain int) {
	if retain < 0 {
		retain = 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, "build-*.log"))
	if err != nil || len(matches) <= retain {
		return
	}

	// The stream label sits between the "build-" prefix and the
	// timestamp, so plain name order interleaves streams; order by the
	// minute-resolution timestamp suffix instead.
	sort.Slice(matches, func(i, j int) bool {
		return logStamp(matches[i]) < logStamp(matches[j])
	})
	for _, path := range matches[:len(matches)-retain] {
		if err := compressLog(path); err != nil {
			log.Warn("Failed to compress old build log", "log", path, "error", err)
		}
	}
}

// logStamp extracts the YYYYMMDD-HHMM suffix from a build log name,
// falling back to the whole name when it does not match the pattern.
func logStamp(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".log")
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return name
	}
	return parts[len(parts)-2] + "-" + parts[len(parts)-1]
}

// compressLog writes path.xz and removes the original on success
func compressLog(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".xz")
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := xz.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
