// Package backend abstracts the storage an image lives on. An image is
// always manipulated through a memory-mapped view of its backing file, so
// the contract is a mutable byte slice plus explicit sync and close.
package backend

import (
	"errors"
	"io"
)

var (
	ErrClosed      = errors.New("backend storage already closed")
	ErrNotSuitable = errors.New("backing file is not suitable")
)

// Storage is a live, writable view over the full bytes of an image.
// Mutating the returned slice mutates the image; Sync pushes the mapping
// back to the host file where the implementation requires it.
type Storage interface {
	io.Closer
	// Bytes returns the mapped image contents. The slice stays valid
	// until Close; callers must not retain it afterwards.
	Bytes() []byte
	// Sync flushes outstanding mutations to the backing file.
	Sync() error
}
