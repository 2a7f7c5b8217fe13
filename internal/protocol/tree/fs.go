package tree

import (
	"io"
	"io/fs"
	"os"
)

// FS is the filesystem surface the engine needs.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	// Mkdir creates one directory level; missing parents are an error.
	Mkdir(name string, perm fs.FileMode) error
	Open(name string) (File, error)
	// Create opens name for writing, truncating any existing file.
	Create(name string) (io.WriteCloser, error)
}

// File is an open file being sent.
type File interface {
	io.ReadCloser
	Stat() (fs.FileInfo, error)
}

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// OSFS is FS backed by the host filesystem.
type OSFS struct{}

var _ FS = OSFS{}

func (OSFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (OSFS) Lstat(name string) (fs.FileInfo, error)     { return os.Lstat(name) }
func (OSFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (OSFS) Mkdir(name string, perm fs.FileMode) error  { return os.Mkdir(name, perm) }

func (OSFS) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OSFS) Create(name string) (io.WriteCloser, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, err
	}
	return f, nil
}
