package fatfs

import (
	"encoding/binary"
	"time"

	"github.com/Cicim/fat-fs/util/timestamp"
)

// fileHeaderSize is the byte length of the header stored at the start of a
// file's first block: a u32 payload size and two packed date-times.
const fileHeaderSize = 4 + 2*timestamp.Size

// fileHeader is the per-file metadata prefix. The size counts user payload
// bytes only, the header excluded.
type fileHeader struct {
	size     int
	created  timestamp.DateTime
	modified timestamp.DateTime
}

// fileHeaderAt decodes the header of the file whose chain starts at block.
func (fs *FileSystem) fileHeaderAt(block int) fileHeader {
	b := fs.block(block)
	return fileHeader{
		size:     int(binary.LittleEndian.Uint32(b[0:4])),
		created:  timestamp.FromBytes(b[4 : 4+timestamp.Size]),
		modified: timestamp.FromBytes(b[4+timestamp.Size : fileHeaderSize]),
	}
}

// putFileHeaderAt encodes fh at the start of block.
func (fs *FileSystem) putFileHeaderAt(block int, fh fileHeader) {
	b := fs.block(block)
	binary.LittleEndian.PutUint32(b[0:4], uint32(fh.size))
	fh.created.PutBytes(b[4 : 4+timestamp.Size])
	fh.modified.PutBytes(b[4+timestamp.Size : fileHeaderSize])
}

// fileSizeAt reads just the payload size of the file starting at block.
func (fs *FileSystem) fileSizeAt(block int) int {
	return int(binary.LittleEndian.Uint32(fs.block(block)[0:4]))
}

// setFileSizeAt stores the payload size of the file starting at block.
func (fs *FileSystem) setFileSizeAt(block, size int) {
	binary.LittleEndian.PutUint32(fs.block(block)[0:4], uint32(size))
}

// touchModifiedAt stamps the modification time of the file starting at
// block with t.
func (fs *FileSystem) touchModifiedAt(block int, t time.Time) {
	b := fs.block(block)
	timestamp.FromTime(t).PutBytes(b[4+timestamp.Size : fileHeaderSize])
}

// Chtimes rewrites the creation and modification dates of the file at
// path. Importing from a host file uses this to carry the host's own
// timestamps over.
func (fs *FileSystem) Chtimes(path string, created, modified time.Time) error {
	dir, leaf, err := fs.components(path)
	if err != nil {
		return err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return err
	}
	_, ent, err := fs.lookup(parent, leaf)
	if err != nil {
		return err
	}
	if ent.Type != TypeFile {
		return ErrNotAFile
	}

	fh := fs.fileHeaderAt(ent.FirstBlock)
	fh.created = timestamp.FromTime(created)
	fh.modified = timestamp.FromTime(modified)
	fs.putFileHeaderAt(ent.FirstBlock, fh)
	return nil
}
