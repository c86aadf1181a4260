// Package file provides a backend.Storage backed by a host file mapped
// into memory with mmap(2).
package file

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/Cicim/fat-fs/backend"
)

type mappedBackend struct {
	storage *os.File
	data    []byte
}

// backend.Storage interface guard
var _ backend.Storage = (*mappedBackend)(nil)

// OpenFromPath maps an existing image file read-write.
// The provided file must exist at the time you call OpenFromPath().
func OpenFromPath(pathName string) (backend.Storage, error) {
	if pathName == "" {
		return nil, errors.New("must pass an image file name")
	}

	f, err := os.OpenFile(pathName, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open image %s: %w", pathName, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not stat image %s: %w", pathName, err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, backend.ErrNotSuitable
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not map image %s: %w", pathName, err)
	}

	return &mappedBackend{storage: f, data: data}, nil
}

// CreateFromPath creates (or truncates) an image file of the given size and
// maps it read-write. The contents start zeroed.
func CreateFromPath(pathName string, size int64) (backend.Storage, error) {
	if pathName == "" {
		return nil, errors.New("must pass an image file name")
	}
	if size <= 0 {
		return nil, errors.New("must pass a valid image size to create")
	}

	f, err := os.OpenFile(pathName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return nil, fmt.Errorf("could not create image %s: %w", pathName, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not expand image %s to size %d: %w", pathName, size, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not map image %s: %w", pathName, err)
	}

	return &mappedBackend{storage: f, data: data}, nil
}

// Bytes returns the mapped image contents.
func (m *mappedBackend) Bytes() []byte {
	return m.data
}

// Sync flushes the mapping back to the host file.
func (m *mappedBackend) Sync() error {
	if m.data == nil {
		return backend.ErrClosed
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Close unmaps the image and closes the backing file. The OS writes back
// any remaining dirty pages of a MAP_SHARED mapping on its own.
func (m *mappedBackend) Close() error {
	if m.data == nil {
		return backend.ErrClosed
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("could not unmap image: %w", err)
	}
	m.data = nil
	return m.storage.Close()
}
