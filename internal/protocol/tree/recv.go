package tree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/codec"
)

// RecvFile reads one file node and writes it into destDir, replacing any
// file of the same name. destDir must already exist.
func (e *Engine) RecvFile(r io.Reader, destDir string) (string, error) {
	name, err := codec.ReadString(r)
	if err != nil {
		return "", err
	}
	if err := protocol.ValidateName(name); err != nil {
		return "", err
	}
	size, err := codec.ReadLength(r)
	if err != nil {
		return "", err
	}

	path := filepath.Join(destDir, name)
	out, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("tree: create %s: %w", path, err)
	}
	if _, err := codec.CopyExact(out, r, size); err != nil {
		closeQuietly(out)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("tree: close %s: %w", path, err)
	}
	return path, nil
}

// RecvDir reads one directory node, creates it under destDir and fills it.
// An existing directory of the same name is reused and its same-named files
// are overwritten. onFileReceived, if non-nil, runs synchronously after each
// file in traversal order.
func (e *Engine) RecvDir(r io.Reader, destDir string, onFileReceived func(path string)) error {
	info, err := e.fs.Stat(destDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", protocol.ErrNotADirectory, destDir)
	}
	return e.recvDir(r, destDir, onFileReceived)
}

func (e *Engine) recvDir(r io.Reader, destDir string, onFileReceived func(path string)) error {
	name, err := codec.ReadString(r)
	if err != nil {
		return err
	}
	if err := protocol.ValidateName(name); err != nil {
		return err
	}
	dir := filepath.Join(destDir, name)
	if err := e.mkdir(dir); err != nil {
		return err
	}
	if e.OnDirCreated != nil {
		e.OnDirCreated(dir)
	}

	for {
		tag, err := codec.ReadTag(r)
		if err != nil {
			return err
		}
		switch tag {
		case protocol.TagEnd:
			return nil
		case protocol.TagFile:
			path, err := e.RecvFile(r, dir)
			if err != nil {
				return err
			}
			if onFileReceived != nil {
				onFileReceived(path)
			}
		case protocol.TagDir:
			if err := e.recvDir(r, dir, onFileReceived); err != nil {
				return err
			}
		}
	}
}

// mkdir creates one level, tolerating a directory that already exists.
func (e *Engine) mkdir(dir string) error {
	err := e.fs.Mkdir(dir, dirPerm)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		if info, statErr := e.fs.Lstat(dir); statErr == nil && info.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("tree: mkdir %s: %w", dir, err)
}
