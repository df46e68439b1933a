package slot

import (
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/domain/cart"
)

const fileExt = ".slot"

// File stores each key in its own file under a directory. Keys are
// hex-encoded into file names, so any key is safe. Writes go to a temporary
// file first and are renamed into place.
type File struct {
	dir string
}

// NewFile returns a File slot rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create slot dir %q", dir)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+fileExt)
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read slot %q", key)
	}
	return data, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, "tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write slot %q", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync slot %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close slot %q", key)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return errors.Wrapf(err, "rename slot %q", key)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "delete slot %q", key)
	}
	return nil
}
