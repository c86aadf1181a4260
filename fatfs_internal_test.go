package fatfs

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/Cicim/fat-fs/testhelper"
)

// testClock is the instant every test filesystem stamps files with.
var testClock = time.Date(2023, time.May, 17, 10, 30, 45, 0, time.UTC)

func newTestFS(t *testing.T, blockSize, blocksCount int) *FileSystem {
	t.Helper()
	st := testhelper.NewMemStorage(ImageSize(blockSize, blocksCount))
	if err := Format(st, blockSize, blocksCount); err != nil {
		t.Fatalf("Format(%d, %d) returned unexpected error %v", blockSize, blocksCount, err)
	}
	fs, err := Read(st)
	if err != nil {
		t.Fatalf("Read() returned unexpected error %v", err)
	}
	fs.now = func() time.Time { return testClock }
	return fs
}

// checkFreeBlocks verifies the header's free count against the bitmap
// population, the invariant every public operation must preserve.
func checkFreeBlocks(t *testing.T, fs *FileSystem) {
	t.Helper()
	if got, want := fs.FreeBlocks(), fs.bitmap.CountFree(); got != want {
		t.Errorf("free blocks count is %d instead of expected %d", got, want)
	}
	if set, _ := fs.bitmap.IsSet(RootDirBlock); !set {
		t.Error("root directory block is not allocated")
	}
}

func TestImageSize(t *testing.T) {
	if got, want := ImageSize(32, 32), 1172; got != want {
		t.Errorf("ImageSize(32, 32) returned %d instead of expected %d", got, want)
	}
}

func TestFormat(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	if got := fs.FreeBlocks(); got != 31 {
		t.Errorf("a fresh image has %d free blocks instead of expected 31", got)
	}
	if fs.blockSize != 32 || fs.blocksCount != 32 {
		t.Errorf("geometry is (%d, %d) instead of expected (32, 32)", fs.blockSize, fs.blocksCount)
	}
	if fs.cwd != "/" {
		t.Errorf("current directory starts at %q instead of expected %q", fs.cwd, "/")
	}
	for b := 0; b < fs.blocksCount; b++ {
		if next := fs.fatNext(b); next != FatEOF {
			t.Errorf("fat[%d] of a fresh image is %d instead of FAT_EOF", b, next)
		}
	}
	checkFreeBlocks(t, fs)
}

func TestFormatValidation(t *testing.T) {
	tests := []struct {
		blockSize   int
		blocksCount int
		err         error
	}{
		{0, 32, ErrInvalidBlockSize},
		{-32, 32, ErrInvalidBlockSize},
		{33, 32, ErrInvalidBlockSize},
		{32, 0, ErrInvalidBlocksCount},
		{32, -32, ErrInvalidBlocksCount},
		{32, 50, ErrInvalidBlocksCount},
	}
	for _, tt := range tests {
		st := testhelper.NewMemStorage(64)
		if err := Format(st, tt.blockSize, tt.blocksCount); err != tt.err {
			t.Errorf("Format(%d, %d) returned %v instead of expected %v", tt.blockSize, tt.blocksCount, err, tt.err)
		}
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	st := testhelper.NewMemStorage(ImageSize(32, 32))
	if err := Format(st, 32, 32); err != nil {
		t.Fatalf("Format returned unexpected error %v", err)
	}
	binary.LittleEndian.PutUint32(st.Data[0:4], 0xDEADBEEF)
	if _, err := Read(st); err != ErrOpen {
		t.Errorf("Read() on a bad magic returned %v instead of expected %v", err, ErrOpen)
	}
}

func TestReadRejectsInconsistentFreeCount(t *testing.T) {
	st := testhelper.NewMemStorage(ImageSize(32, 32))
	if err := Format(st, 32, 32); err != nil {
		t.Fatalf("Format returned unexpected error %v", err)
	}
	// claim more free blocks than the bitmap holds
	binary.LittleEndian.PutUint32(st.Data[12:16], 32)
	if _, err := Read(st); err != ErrOpen {
		t.Errorf("Read() on a bad free count returned %v instead of expected %v", err, ErrOpen)
	}
}

func TestReadRejectsShortImage(t *testing.T) {
	st := testhelper.NewMemStorage(8)
	if _, err := Read(st); err != ErrOpen {
		t.Errorf("Read() on a short image returned %v instead of expected %v", err, ErrOpen)
	}
}

func TestAllocBlock(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	b, err := fs.allocBlock()
	if err != nil {
		t.Fatalf("allocBlock() returned unexpected error %v", err)
	}
	// block 0 is the root, so the lowest free index is 1
	if b != 1 {
		t.Errorf("allocBlock() returned block %d instead of expected 1", b)
	}
	if got := fs.FreeBlocks(); got != 30 {
		t.Errorf("free blocks after alloc is %d instead of expected 30", got)
	}
	checkFreeBlocks(t, fs)

	fs.freeBlock(b)
	if got := fs.FreeBlocks(); got != 31 {
		t.Errorf("free blocks after free is %d instead of expected 31", got)
	}
	checkFreeBlocks(t, fs)
}

func TestAllocBlockExhaustion(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	for i := 0; i < 31; i++ {
		if _, err := fs.allocBlock(); err != nil {
			t.Fatalf("allocBlock() #%d returned unexpected error %v", i, err)
		}
	}
	if _, err := fs.allocBlock(); err != ErrNoFreeBlocks {
		t.Errorf("allocBlock() on a full image returned %v instead of expected %v", err, ErrNoFreeBlocks)
	}
	checkFreeBlocks(t, fs)
}

func TestSetBlockIdempotent(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	free := fs.FreeBlocks()
	fs.setBlock(5, true)
	fs.setBlock(5, true)
	if got := fs.FreeBlocks(); got != free-1 {
		t.Errorf("setting the same bit twice left %d free blocks instead of expected %d", got, free-1)
	}
	fs.setBlock(5, false)
	fs.setBlock(5, false)
	if got := fs.FreeBlocks(); got != free {
		t.Errorf("clearing the same bit twice left %d free blocks instead of expected %d", got, free)
	}
}

func TestUnlinkChain(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	// build a three-block chain by hand
	blocks := make([]int, 3)
	for i := range blocks {
		b, err := fs.allocBlock()
		if err != nil {
			t.Fatalf("allocBlock() returned unexpected error %v", err)
		}
		blocks[i] = b
		if i > 0 {
			fs.fatSetNext(blocks[i-1], b)
		}
	}
	free := fs.FreeBlocks()

	fs.unlinkChain(blocks[0])
	if got := fs.FreeBlocks(); got != free+3 {
		t.Errorf("free blocks after unlink is %d instead of expected %d", got, free+3)
	}
	for _, b := range blocks {
		if next := fs.fatNext(b); next != FatEOF {
			t.Errorf("fat[%d] after unlink is %d instead of FAT_EOF", b, next)
		}
	}
	checkFreeBlocks(t, fs)
}

func TestUnlinkChainEOF(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	free := fs.FreeBlocks()
	fs.unlinkChain(FatEOF)
	if got := fs.FreeBlocks(); got != free {
		t.Errorf("unlinking FAT_EOF changed free blocks to %d from %d", got, free)
	}
}

func TestResizeChain(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	first, err := fs.allocBlock()
	if err != nil {
		t.Fatalf("allocBlock() returned unexpected error %v", err)
	}

	// grow to three blocks
	if err := fs.resizeChain(first, 3*32); err != nil {
		t.Fatalf("resizeChain grow returned unexpected error %v", err)
	}
	if got := fs.chainLength(first); got != 3 {
		t.Errorf("chain length after grow is %d instead of expected 3", got)
	}

	// shrink back to one
	if err := fs.resizeChain(first, 10); err != nil {
		t.Fatalf("resizeChain shrink returned unexpected error %v", err)
	}
	if got := fs.chainLength(first); got != 1 {
		t.Errorf("chain length after shrink is %d instead of expected 1", got)
	}

	// zero bytes still keeps one block
	if err := fs.resizeChain(first, 0); err != nil {
		t.Fatalf("resizeChain to zero returned unexpected error %v", err)
	}
	if got := fs.chainLength(first); got != 1 {
		t.Errorf("chain length after resize to zero is %d instead of expected 1", got)
	}
	checkFreeBlocks(t, fs)
}

func TestResizeChainExhaustion(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	first, err := fs.allocBlock()
	if err != nil {
		t.Fatalf("allocBlock() returned unexpected error %v", err)
	}
	if err := fs.resizeChain(first, 33*32); err != ErrNoFreeBlocks {
		t.Errorf("resizeChain past capacity returned %v instead of expected %v", err, ErrNoFreeBlocks)
	}
	// growth is not rolled back, but the accounting must still hold
	checkFreeBlocks(t, fs)
}
