package fatfs

import (
	"bytes"
	"encoding/binary"
)

// dirEntrySize is the fixed on-disk size of a directory entry. The block
// size is a multiple of it, so entries never straddle blocks.
const dirEntrySize = 32

// EntryType tags a directory entry.
type EntryType uint8

const (
	// TypeDirEnd is the sentinel closing a directory's entry list.
	TypeDirEnd EntryType = 0
	// TypeFile marks a file entry.
	TypeFile EntryType = 1
	// TypeDirectory marks a directory entry.
	TypeDirectory EntryType = 2
)

func (t EntryType) String() string {
	switch t {
	case TypeDirEnd:
		return "end"
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	}
	return "unknown"
}

// DirEntry is a single directory record: a name, a type tag and the first
// block of the entry's chain. On disk it occupies 32 bytes: 27 bytes of
// NUL-terminated name, one type byte, and a little-endian u32 first block.
type DirEntry struct {
	Name       string
	Type       EntryType
	FirstBlock int
}

// IsDir reports whether the entry names a directory.
func (e DirEntry) IsDir() bool {
	return e.Type == TypeDirectory
}

func dirEntryFromBytes(b []byte) DirEntry {
	name := b[0:MaxFilenameLength]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return DirEntry{
		Name:       string(name),
		Type:       EntryType(b[MaxFilenameLength]),
		FirstBlock: int(binary.LittleEndian.Uint32(b[MaxFilenameLength+1 : dirEntrySize])),
	}
}

func (e DirEntry) putBytes(b []byte) {
	for i := 0; i < MaxFilenameLength; i++ {
		b[i] = 0
	}
	copy(b[0:MaxFilenameLength-1], e.Name)
	b[MaxFilenameLength] = byte(e.Type)
	binary.LittleEndian.PutUint32(b[MaxFilenameLength+1:dirEntrySize], uint32(e.FirstBlock))
}
