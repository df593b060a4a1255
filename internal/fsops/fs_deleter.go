package fsops

import (
	"os"

	"github.com/spf13/afero"
)

// FsDeleter implements Deleter on top of an afero filesystem
type FsDeleter struct {
	Fs afero.Fs
}

// NewOSDeleter returns a Deleter backed by the real filesystem
func NewOSDeleter() FsDeleter {
	return FsDeleter{Fs: afero.NewOsFs()}
}

func (d FsDeleter) Remove(path string) error {
	return d.Fs.Remove(path)
}

// RemoveAll fails with a not-exist error when path is already gone,
// unlike afero/os RemoveAll which treat that as success.
func (d FsDeleter) RemoveAll(path string) error {
	if _, err := lstat(d.Fs, path); err != nil {
		return err
	}
	return d.Fs.RemoveAll(path)
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
