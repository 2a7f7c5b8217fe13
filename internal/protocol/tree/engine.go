// Package tree encodes a file or directory subtree onto a byte stream and
// materializes one from it.
//
// Both peers walk the tree depth-first in pre-order: a node's name, then its
// children in the sender's enumeration order, then END. There is no
// resynchronization marker, so any error leaves the stream unusable and the
// connection must be dropped.
package tree

import (
	"io"
	"io/fs"
	"path/filepath"

	"github.com/danmuck/treexfer/internal/protocol"
)

// Engine runs transfers against one filesystem. It holds no per-transfer
// state and may be shared by independent connections.
type Engine struct {
	fs FS

	// OnFileSent, when set, is called after each file's bytes are written.
	OnFileSent func(path string, size int64)
	// OnDirSent, when set, is called after each directory's name is written.
	OnDirSent func(path string)
	// OnDirCreated, when set, is called after each received directory exists.
	OnDirCreated func(path string)
}

// New returns an engine over fsys, or over the host filesystem when fsys is nil.
func New(fsys FS) *Engine {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &Engine{fs: fsys}
}

// FS returns the engine's filesystem.
func (e *Engine) FS() FS {
	return e.fs
}

// Classify reports whether path is a file or a directory, following a
// top-level symlink.
func (e *Engine) Classify(path string) (protocol.Tag, fs.FileInfo, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return 0, nil, notFound(path, err)
	}
	switch {
	case info.Mode().IsRegular():
		return protocol.TagFile, info, nil
	case info.IsDir():
		return protocol.TagDir, info, nil
	default:
		return 0, nil, notFound(path, nil)
	}
}

func baseName(path string) (string, error) {
	name := filepath.Base(filepath.Clean(path))
	if err := protocol.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
