// Package fatfs implements a FAT-style filesystem stored inside a single
// host file. The image holds a header, an allocation bitmap, a FAT
// next-block table and a region of fixed-size data blocks; it is mapped
// into memory and mutated in place.
//
// A typical session:
//
//	err := fatfs.Init("disk.img", 512, 4096)
//	fs, err := fatfs.Open("disk.img")
//	defer fs.Close()
//
//	err = fs.Mkdir("/docs")
//	f, err := fs.OpenFile("/docs/readme", "w+")
//	n, err := f.Write([]byte("hello"))
//	err = f.Close()
package fatfs

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Cicim/fat-fs/backend"
	backendfile "github.com/Cicim/fat-fs/backend/file"
	"github.com/Cicim/fat-fs/util/bitmap"
	"github.com/Cicim/fat-fs/util/timestamp"
)

const (
	// MaxFilenameLength is the size of the name field of a directory entry,
	// terminator included.
	MaxFilenameLength = 27
	// MaxPathLength bounds the canonical absolute form of any path,
	// terminator included.
	MaxPathLength = 512
	// RootDirBlock is the block the root directory starts at. Its bitmap
	// bit is always set.
	RootDirBlock = 0
	// FatEOF marks the end of a block chain in the FAT table.
	FatEOF = -1

	// blockSizeMultiple constrains both the block size and the blocks
	// count. It also keeps the block size a multiple of the directory
	// entry size, so entries never straddle blocks.
	blockSizeMultiple = 32
)

// FileSystem is an open image. It owns the mapped region and the current
// directory, and exposes every file and directory operation. It is not safe
// for concurrent use.
type FileSystem struct {
	storage backend.Storage
	bitmap  *bitmap.Bitmap
	header  []byte
	fat     []byte
	blocks  []byte

	blockSize       int
	blocksCount     int
	entriesPerBlock int
	cwd             string

	// now stamps file creation and modification times. Tests replace it.
	now func() time.Time
}

// ImageSize returns the total byte size of an image with the given
// geometry: header, bitmap, FAT table and data blocks.
func ImageSize(blockSize, blocksCount int) int {
	return headerSize + blocksCount/8 + blocksCount*4 + blocksCount*blockSize
}

// Init creates an image file at path with the given geometry and formats
// it. Both blockSize and blocksCount must be positive multiples of 32.
// The backing file is created, or truncated if it already exists.
func Init(path string, blockSize, blocksCount int) error {
	if blocksCount <= 0 || blocksCount%blockSizeMultiple != 0 {
		return ErrInvalidBlocksCount
	}
	if blockSize <= 0 || blockSize%blockSizeMultiple != 0 {
		return ErrInvalidBlockSize
	}

	st, err := backendfile.CreateFromPath(path, int64(ImageSize(blockSize, blocksCount)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuffer, err)
	}
	if err := Format(st, blockSize, blocksCount); err != nil {
		st.Close()
		return err
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrClose, err)
	}
	return nil
}

// Format writes a fresh filesystem onto the given storage, which must be
// exactly ImageSize(blockSize, blocksCount) bytes and zeroed. Block 0 is
// reserved for the root directory.
func Format(st backend.Storage, blockSize, blocksCount int) error {
	if blocksCount <= 0 || blocksCount%blockSizeMultiple != 0 {
		return ErrInvalidBlocksCount
	}
	if blockSize <= 0 || blockSize%blockSizeMultiple != 0 {
		return ErrInvalidBlockSize
	}
	b := st.Bytes()
	if len(b) != ImageSize(blockSize, blocksCount) {
		return ErrBuffer
	}

	hdr := fatHeader{
		magic:       Magic,
		blockSize:   uint32(blockSize),
		blocksCount: uint32(blocksCount),
		freeBlocks:  uint32(blocksCount - 1),
	}
	hdr.putBytes(b[0:headerSize])

	// reserve the root directory block
	b[headerSize] = 0x01

	// an empty FAT table is all chain terminators
	fat := b[headerSize+blocksCount/8 : headerSize+blocksCount/8+blocksCount*4]
	for i := 0; i < blocksCount; i++ {
		binary.LittleEndian.PutUint32(fat[i*4:], uint32(0xFFFFFFFF))
	}

	return nil
}

// Open maps the image at path into memory and returns a FileSystem over
// it. The current directory starts at "/".
func Open(path string) (*FileSystem, error) {
	st, err := backendfile.OpenFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuffer, err)
	}
	fs, err := Read(st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return fs, nil
}

// Read builds a FileSystem over an already mapped image. It verifies the
// magic, the image size against the header geometry, and the header's
// free-block count against the bitmap population.
func Read(st backend.Storage) (*FileSystem, error) {
	b := st.Bytes()
	if len(b) < headerSize {
		return nil, ErrOpen
	}
	hdr := headerFromBytes(b)
	if hdr.magic != Magic {
		return nil, ErrOpen
	}

	blockSize := int(hdr.blockSize)
	blocksCount := int(hdr.blocksCount)
	if blockSize <= 0 || blockSize%blockSizeMultiple != 0 ||
		blocksCount <= 0 || blocksCount%blockSizeMultiple != 0 ||
		len(b) < ImageSize(blockSize, blocksCount) {
		return nil, ErrOpen
	}

	bitmapStart := headerSize
	fatStart := bitmapStart + blocksCount/8
	blocksStart := fatStart + blocksCount*4

	fs := &FileSystem{
		storage:         st,
		header:          b[0:headerSize],
		bitmap:          bitmap.Wrap(b[bitmapStart:fatStart]),
		fat:             b[fatStart:blocksStart],
		blocks:          b[blocksStart : blocksStart+blocksCount*blockSize],
		blockSize:       blockSize,
		blocksCount:     blocksCount,
		entriesPerBlock: blockSize / dirEntrySize,
		cwd:             "/",
		now:             timestamp.GetTime,
	}
	if int(hdr.freeBlocks) != fs.bitmap.CountFree() {
		return nil, ErrOpen
	}
	return fs, nil
}

// Close unmaps the image and releases the handle. The OS write-back of the
// mapping persists all mutations; no explicit flush is needed.
func (fs *FileSystem) Close() error {
	if fs.storage == nil {
		return ErrClose
	}
	if err := fs.storage.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrClose, err)
	}
	fs.storage = nil
	fs.header = nil
	fs.fat = nil
	fs.blocks = nil
	fs.bitmap = nil
	return nil
}

// Sync flushes the mapping to the backing file.
func (fs *FileSystem) Sync() error {
	return fs.storage.Sync()
}

// BlockSize returns the image's block size in bytes.
func (fs *FileSystem) BlockSize() int { return fs.blockSize }

// BlocksCount returns how many data blocks the image holds.
func (fs *FileSystem) BlocksCount() int { return fs.blocksCount }

// FreeBlocks returns the free-block count from the header.
func (fs *FileSystem) FreeBlocks() int {
	return int(binary.LittleEndian.Uint32(fs.header[12:16]))
}

func (fs *FileSystem) setFreeBlocks(n int) {
	binary.LittleEndian.PutUint32(fs.header[12:16], uint32(n))
}

// Getwd returns the current directory.
func (fs *FileSystem) Getwd() string { return fs.cwd }

// Chdir changes the current directory. The target must exist and be a
// directory.
func (fs *FileSystem) Chdir(path string) error {
	abs, err := fs.Abs(path)
	if err != nil {
		return err
	}
	if _, err := fs.dirFirstBlock(abs); err != nil {
		return err
	}
	fs.cwd = abs
	return nil
}

// Size reports the byte and block footprint of the file or directory at
// path. Directories are measured recursively, their own entry chains
// included.
func (fs *FileSystem) Size(path string) (size, blocks int, err error) {
	abs, err := fs.Abs(path)
	if err != nil {
		return 0, 0, err
	}
	if abs == "/" {
		return fs.recursiveSize(RootDirBlock, TypeDirectory)
	}

	dir, leaf, err := splitPath(abs)
	if err != nil {
		return 0, 0, err
	}
	dirBlock, err := fs.dirFirstBlock(dir)
	if err != nil {
		return 0, 0, err
	}
	_, ent, err := fs.lookup(dirBlock, leaf)
	if err != nil {
		return 0, 0, err
	}
	return fs.recursiveSize(ent.FirstBlock, ent.Type)
}

// block returns the data bytes of block b.
func (fs *FileSystem) block(b int) []byte {
	return fs.blocks[b*fs.blockSize : (b+1)*fs.blockSize]
}

// setBlock flips the allocation bit of block b and keeps the header's
// free-block count in step. Setting a bit to its current value leaves the
// count untouched.
func (fs *FileSystem) setBlock(b int, allocated bool) {
	old, _ := fs.bitmap.IsSet(b)
	if old == allocated {
		return
	}
	if allocated {
		_ = fs.bitmap.Set(b)
		fs.setFreeBlocks(fs.FreeBlocks() - 1)
	} else {
		_ = fs.bitmap.Clear(b)
		fs.setFreeBlocks(fs.FreeBlocks() + 1)
	}
}

// allocBlock claims the lowest free block, terminates its FAT entry and
// zeroes its contents.
func (fs *FileSystem) allocBlock() (int, error) {
	b := fs.bitmap.FirstFree(0)
	if b < 0 || b >= fs.blocksCount {
		return FatEOF, ErrNoFreeBlocks
	}
	fs.setBlock(b, true)
	fs.fatSetNext(b, FatEOF)
	blk := fs.block(b)
	for i := range blk {
		blk[i] = 0
	}
	return b, nil
}

// freeBlock releases block b and resets its FAT entry.
func (fs *FileSystem) freeBlock(b int) {
	fs.setBlock(b, false)
	fs.fatSetNext(b, FatEOF)
}
