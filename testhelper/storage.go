// Package testhelper provides fakes shared by unit tests.
package testhelper

import "github.com/Cicim/fat-fs/backend"

// MemStorage is an in-memory backend.Storage. It lets tests exercise the
// filesystem engine without a host file or a real mapping.
type MemStorage struct {
	Data   []byte
	Synced int
	Closed bool
}

// backend.Storage interface guard
var _ backend.Storage = (*MemStorage)(nil)

// NewMemStorage returns a zeroed in-memory storage of the given size.
func NewMemStorage(size int) *MemStorage {
	return &MemStorage{Data: make([]byte, size)}
}

func (m *MemStorage) Bytes() []byte {
	return m.Data
}

func (m *MemStorage) Sync() error {
	if m.Closed {
		return backend.ErrClosed
	}
	m.Synced++
	return nil
}

func (m *MemStorage) Close() error {
	if m.Closed {
		return backend.ErrClosed
	}
	m.Closed = true
	return nil
}
