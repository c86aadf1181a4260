package fatfs

import "errors"

// The closed set of errors the filesystem reports. Operations return these
// values, possibly wrapped with context via fmt.Errorf and %w, so callers
// match them with errors.Is.
var (
	// ErrBuffer signals host file I/O trouble with the image.
	ErrBuffer = errors.New("error with the buffer containing the FAT FS")
	// ErrInvalidBlocksCount means the blocks count passed to Init is not a
	// positive multiple of 32.
	ErrInvalidBlocksCount = errors.New("invalid number of blocks")
	// ErrInvalidBlockSize means the block size passed to Init is not a
	// positive multiple of 32.
	ErrInvalidBlockSize = errors.New("invalid block size")
	// ErrOpen means the image carries a bad magic, or a header whose
	// geometry or free-block count does not match the image. Failures to
	// open or map the host file are reported as ErrBuffer.
	ErrOpen = errors.New("cannot open the FAT buffer file")
	// ErrClose means the image could not be unmapped or closed.
	ErrClose = errors.New("cannot close the FAT buffer file")
	// ErrInvalidPath is returned for empty, malformed or root-popping paths.
	ErrInvalidPath = errors.New("invalid path")
	// ErrDirEndNotFound signals a broken directory chain: entries continue
	// past the last linked block. It is a structural invariant violation.
	ErrDirEndNotFound = errors.New("cannot find DIR_END entry in the last block of the directory")
	// ErrEndOfDir terminates directory iteration. It is a signal, not a
	// failure.
	ErrEndOfDir = errors.New("directory end")
	// ErrFileNotFound is a lookup miss.
	ErrFileNotFound = errors.New("no such file or directory")
	// ErrNotADirectory is returned when a path component or the target of a
	// directory operation is a file.
	ErrNotADirectory = errors.New("not a directory")
	// ErrNoFreeBlocks means the allocator is exhausted.
	ErrNoFreeBlocks = errors.New("not enough free blocks")
	// ErrFileExists is a name collision inside a directory.
	ErrFileExists = errors.New("file already exists")
	// ErrOutOfMemory means a handle could not be allocated. Go's runtime
	// aborts on exhausted memory, so operations never actually produce it;
	// it exists so the full result-code set has a rendering.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrInvalidBlock is a block index outside [0, blocks count).
	ErrInvalidBlock = errors.New("invalid block")
	// ErrSeekInvalidArgument is returned for a seek outside file boundaries
	// or with an unknown whence.
	ErrSeekInvalidArgument = errors.New("invalid argument for seek")
	// ErrNotAFile is returned when a file operation targets a directory.
	ErrNotAFile = errors.New("not a file")
	// ErrWriteInvalidArgument is returned when writing through a handle
	// without write permission.
	ErrWriteInvalidArgument = errors.New("invalid argument for write")
	// ErrFileOpenInvalidArgument is returned for an unknown open mode flag.
	ErrFileOpenInvalidArgument = errors.New("invalid argument for file open")
	// ErrListInvalidArgument is returned when listing through a closed
	// directory handle.
	ErrListInvalidArgument = errors.New("invalid argument for ls")
	// ErrSamePath means move source and destination are the same path.
	ErrSamePath = errors.New("same paths")
)
