package tree

import (
	"fmt"
	"path/filepath"

	"github.com/danmuck/treexfer/internal/protocol"
)

// Summary is the aggregate content of a path.
type Summary struct {
	Bytes int64
	Files int
	Dirs  int
}

// Measure totals regular-file bytes, files and directories under path. A
// top-level symlink is followed; entries below it that are neither files nor
// directories are skipped.
func Measure(fsys FS, path string) (Summary, error) {
	if fsys == nil {
		fsys = OSFS{}
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return Summary{}, notFound(path, err)
	}
	switch {
	case info.Mode().IsRegular():
		return Summary{Bytes: info.Size(), Files: 1}, nil
	case info.IsDir():
		var sum Summary
		if err := measureDir(fsys, path, &sum); err != nil {
			return Summary{}, err
		}
		return sum, nil
	default:
		return Summary{}, notFound(path, nil)
	}
}

func measureDir(fsys FS, path string, sum *Summary) error {
	sum.Dirs++
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return fmt.Errorf("tree: list %s: %w", path, err)
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		switch kind := entry.Type(); {
		case kind.IsRegular():
			info, err := entry.Info()
			if err != nil {
				return fmt.Errorf("tree: stat %s: %w", child, err)
			}
			sum.Bytes += info.Size()
			sum.Files++
		case kind.IsDir():
			if err := measureDir(fsys, child, sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// SizeHint clamps a byte total to what the envelope's int32 field can carry.
func (s Summary) SizeHint() int32 {
	if s.Bytes > protocol.MaxLength {
		return protocol.MaxLength
	}
	return int32(s.Bytes)
}
