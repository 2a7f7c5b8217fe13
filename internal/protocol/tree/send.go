package tree

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/codec"
)

// SendFile writes one file node: name, int32 size, contents. The contents
// are streamed with the size taken from the open file.
func (e *Engine) SendFile(w io.Writer, path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		return notFound(path, err)
	}
	if !info.Mode().IsRegular() {
		return notFound(path, nil)
	}
	return e.sendFile(w, path)
}

func (e *Engine) sendFile(w io.Writer, path string) error {
	name, err := baseName(path)
	if err != nil {
		return err
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return notFound(path, err)
	}
	defer closeQuietly(f)

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("tree: stat %s: %w", path, err)
	}
	size := info.Size()
	if size > protocol.MaxLength {
		return fmt.Errorf("%w: %s is %d bytes", protocol.ErrFileTooLarge, path, size)
	}

	if err := codec.WriteString(w, name); err != nil {
		return err
	}
	if err := codec.WriteInt32(w, int32(size)); err != nil {
		return err
	}
	n, err := io.CopyN(w, f, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("tree: %s shrank during send: wrote %d of %d bytes", path, n, size)
		}
		return err
	}
	if e.OnFileSent != nil {
		e.OnFileSent(path, size)
	}
	return nil
}

// SendDir writes one directory node and everything beneath it, then END.
// Entries that are neither regular files nor directories abort the transfer.
func (e *Engine) SendDir(w io.Writer, path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		return notFound(path, err)
	}
	if !info.IsDir() {
		return notFound(path, nil)
	}
	return e.sendDir(w, path)
}

func (e *Engine) sendDir(w io.Writer, path string) error {
	name, err := baseName(path)
	if err != nil {
		return err
	}
	entries, err := e.fs.ReadDir(path)
	if err != nil {
		return fmt.Errorf("tree: list %s: %w", path, err)
	}
	if err := codec.WriteString(w, name); err != nil {
		return err
	}
	if e.OnDirSent != nil {
		e.OnDirSent(path)
	}

	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		switch kind := entry.Type(); {
		case kind.IsRegular():
			if err := codec.WriteTag(w, protocol.TagFile); err != nil {
				return err
			}
			if err := e.sendFile(w, child); err != nil {
				return err
			}
		case kind.IsDir():
			if err := codec.WriteTag(w, protocol.TagDir); err != nil {
				return err
			}
			if err := e.sendDir(w, child); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s (%s)", protocol.ErrUnsupportedEntry, child, kind)
		}
	}
	return codec.WriteTag(w, protocol.TagEnd)
}

func notFound(path string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %w", protocol.ErrNotFound, path, cause)
	}
	return fmt.Errorf("%w: %s", protocol.ErrNotFound, path)
}
