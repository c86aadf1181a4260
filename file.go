package fatfs

import (
	"io"
	"os"
	"time"

	"github.com/Cicim/fat-fs/util/timestamp"
)

// openMode is the parsed form of an open-mode string. The string is a set
// of single-character flags in any order; duplicates are idempotent:
//
//	r  read
//	w  write (the first write truncates)
//	a  write, starting at the end of the file
//	+  create the file if it is missing
type openMode struct {
	read   bool
	write  bool
	append bool
	create bool
}

func parseOpenMode(mode string) (openMode, error) {
	if mode == "" {
		return openMode{}, ErrFileOpenInvalidArgument
	}
	var m openMode
	for _, c := range mode {
		switch c {
		case 'r':
			m.read = true
		case 'w':
			m.write = true
		case 'a':
			m.write = true
			m.append = true
		case '+':
			m.create = true
		default:
			return openMode{}, ErrFileOpenInvalidArgument
		}
	}
	return m, nil
}

// File is an open handle on a file stored in the image. It tracks a
// payload offset plus its block-level position, and implements
// io.ReadWriteSeeker and io.Closer. It holds block indices only, never
// pointers into the mapping, so directory compaction cannot invalidate it.
type File struct {
	fs *FileSystem

	firstBlock   int
	currentBlock int
	blockOffset  int
	fileOffset   int

	canRead  bool
	canWrite bool
	truncate bool
}

var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.Closer          = (*File)(nil)
)

// CreateFile creates an empty file at path. Its header starts with size
// zero and both dates stamped with the filesystem clock.
func (fs *FileSystem) CreateFile(path string) error {
	dir, leaf, err := fs.components(path)
	if err != nil {
		return err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return err
	}
	block, err := fs.dirInsert(parent, FatEOF, TypeFile, leaf)
	if err != nil {
		return err
	}

	now := timestamp.FromTime(fs.now())
	fs.putFileHeaderAt(block, fileHeader{size: 0, created: now, modified: now})
	return nil
}

// RemoveFile erases the file at path and releases its chain.
func (fs *FileSystem) RemoveFile(path string) error {
	dir, leaf, err := fs.components(path)
	if err != nil {
		return err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return err
	}
	child, err := fs.dirDelete(parent, filterFile, leaf)
	if err != nil {
		return err
	}
	fs.unlinkChain(child)
	return nil
}

// OpenFile opens the file at path with the given mode string. A missing
// file is created when the mode contains '+', otherwise the open fails
// with ErrFileNotFound. Opening a directory fails with ErrNotAFile. Mode
// 'a' positions the handle at the end of the file.
func (fs *FileSystem) OpenFile(path, mode string) (*File, error) {
	m, err := parseOpenMode(mode)
	if err != nil {
		return nil, err
	}

	dir, leaf, err := fs.components(path)
	if err != nil {
		return nil, err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return nil, err
	}

	_, ent, err := fs.lookup(parent, leaf)
	if err == ErrFileNotFound {
		if !m.create {
			return nil, ErrFileNotFound
		}
		if err := fs.CreateFile(path); err != nil {
			return nil, err
		}
		_, ent, err = fs.lookup(parent, leaf)
	}
	if err != nil {
		return nil, err
	}
	if ent.Type != TypeFile {
		return nil, ErrNotAFile
	}

	fl, err := fs.OpenFileAt(ent.FirstBlock)
	if err != nil {
		return nil, err
	}
	fl.canRead = m.read
	fl.canWrite = m.write
	fl.truncate = m.write && !m.append

	if m.append {
		if _, err := fl.Seek(0, io.SeekEnd); err != nil {
			return nil, err
		}
	}
	return fl, nil
}

// OpenFileAt opens a file handle directly on the chain starting at block,
// bypassing any directory lookup. The handle can both read and write.
func (fs *FileSystem) OpenFileAt(block int) (*File, error) {
	if block < 0 || block >= fs.blocksCount {
		return nil, ErrInvalidBlock
	}
	return &File{
		fs:           fs,
		firstBlock:   block,
		currentBlock: block,
		blockOffset:  fileHeaderSize,
		canRead:      true,
		canWrite:     true,
	}, nil
}

// Size returns the file's payload size in bytes.
func (fl *File) Size() int {
	return fl.fs.fileSizeAt(fl.firstBlock)
}

// CreatedAt returns the file's creation time.
func (fl *File) CreatedAt() time.Time {
	return fl.fs.fileHeaderAt(fl.firstBlock).created.Time()
}

// ModifiedAt returns the file's last modification time.
func (fl *File) ModifiedAt() time.Time {
	return fl.fs.fileHeaderAt(fl.firstBlock).modified.Time()
}

// Read reads up to len(b) bytes from the current offset, crossing blocks
// as needed. It never follows the chain past its end. At end of file it
// returns 0, io.EOF; a read that reaches the end returns the bytes read
// together with io.EOF.
func (fl *File) Read(b []byte) (int, error) {
	if fl == nil || fl.fs == nil {
		return 0, os.ErrClosed
	}

	size := fl.Size()
	remaining := size - fl.fileOffset
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(b) < remaining {
		remaining = len(b)
	}

	totalRead := 0
	for remaining > 0 {
		if fl.blockOffset == fl.fs.blockSize {
			next := fl.fs.fatNext(fl.currentBlock)
			if next == FatEOF {
				break
			}
			fl.currentBlock = next
			fl.blockOffset = 0
		}
		toRead := fl.fs.blockSize - fl.blockOffset
		if toRead > remaining {
			toRead = remaining
		}
		src := fl.fs.block(fl.currentBlock)[fl.blockOffset : fl.blockOffset+toRead]
		copy(b[totalRead:], src)

		totalRead += toRead
		remaining -= toRead
		fl.fileOffset += toRead
		fl.blockOffset += toRead
	}

	if fl.fileOffset >= size {
		return totalRead, io.EOF
	}
	return totalRead, nil
}

// Write stores len(b) bytes at the current offset, growing the chain as
// needed. The first write through a 'w' handle truncates the file to the
// written region; afterwards writes only ever grow the size. On allocator
// exhaustion the chain keeps the blocks linked so far and the size is not
// advanced.
func (fl *File) Write(b []byte) (int, error) {
	if fl == nil || fl.fs == nil {
		return 0, os.ErrClosed
	}
	if !fl.canWrite {
		return 0, ErrWriteInvalidArgument
	}

	fs := fl.fs
	oldSize := fl.Size()
	newSize := fl.fileOffset + len(b)
	if !fl.truncate && newSize < oldSize {
		newSize = oldSize
	}
	fl.truncate = false

	if err := fs.resizeChain(fl.firstBlock, fileHeaderSize+newSize); err != nil {
		return 0, err
	}

	totalWritten := 0
	for totalWritten < len(b) {
		if fl.blockOffset == fs.blockSize {
			next := fs.fatNext(fl.currentBlock)
			if next == FatEOF {
				return totalWritten, ErrInvalidBlock
			}
			fl.currentBlock = next
			fl.blockOffset = 0
		}
		toWrite := fs.blockSize - fl.blockOffset
		if left := len(b) - totalWritten; toWrite > left {
			toWrite = left
		}
		dst := fs.block(fl.currentBlock)[fl.blockOffset : fl.blockOffset+toWrite]
		copy(dst, b[totalWritten:])

		totalWritten += toWrite
		fl.fileOffset += toWrite
		fl.blockOffset += toWrite
	}

	fs.setFileSizeAt(fl.firstBlock, newSize)
	fs.touchModifiedAt(fl.firstBlock, fs.now())
	return totalWritten, nil
}

// Seek moves the offset within [0, size] relative to the start, the
// current offset or the end, per io.SeekStart, io.SeekCurrent and
// io.SeekEnd; with io.SeekEnd a positive offset moves backwards from the
// end. Anything outside the file's boundaries is ErrSeekInvalidArgument.
// The block position is recomputed by walking the chain from the first
// block.
func (fl *File) Seek(offset int64, whence int) (int64, error) {
	if fl == nil || fl.fs == nil {
		return 0, os.ErrClosed
	}

	size := fl.Size()
	var target int
	switch whence {
	case io.SeekStart:
		target = int(offset)
	case io.SeekCurrent:
		target = fl.fileOffset + int(offset)
	case io.SeekEnd:
		target = size - int(offset)
	default:
		return int64(fl.fileOffset), ErrSeekInvalidArgument
	}
	if target < 0 || target > size {
		return int64(fl.fileOffset), ErrSeekInvalidArgument
	}

	abs := target + fileHeaderSize
	hops := abs / fl.fs.blockSize
	blockOffset := abs % fl.fs.blockSize
	// When the offset sits exactly at the end of the last allocated block,
	// park the cursor there instead of walking onto a block that does not
	// exist; the next write allocates it.
	if target == size && blockOffset == 0 {
		hops--
		blockOffset = fl.fs.blockSize
	}

	block := fl.firstBlock
	for i := 0; i < hops; i++ {
		next := fl.fs.fatNext(block)
		if next == FatEOF {
			return int64(fl.fileOffset), ErrSeekInvalidArgument
		}
		block = next
	}

	fl.fileOffset = target
	fl.currentBlock = block
	fl.blockOffset = blockOffset
	return int64(target), nil
}

// Close releases the handle. The image itself needs no flushing; every
// mutation already lives in the mapping.
func (fl *File) Close() error {
	if fl == nil || fl.fs == nil {
		return os.ErrClosed
	}
	fl.fs = nil
	return nil
}
