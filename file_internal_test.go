package fatfs

import (
	"io"
	"testing"
)

func TestParseOpenMode(t *testing.T) {
	tests := []struct {
		mode string
		want openMode
		err  error
	}{
		{"r", openMode{read: true}, nil},
		{"w", openMode{write: true}, nil},
		{"a", openMode{write: true, append: true}, nil},
		{"w+", openMode{write: true, create: true}, nil},
		{"a+", openMode{write: true, append: true, create: true}, nil},
		{"rw", openMode{read: true, write: true}, nil},
		{"+w", openMode{write: true, create: true}, nil},
		{"rr", openMode{read: true}, nil},
		{"", openMode{}, ErrFileOpenInvalidArgument},
		{"x", openMode{}, ErrFileOpenInvalidArgument},
		{"r b", openMode{}, ErrFileOpenInvalidArgument},
	}
	for _, tt := range tests {
		got, err := parseOpenMode(tt.mode)
		if err != tt.err {
			t.Errorf("parseOpenMode(%q) returned error %v instead of expected %v", tt.mode, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOpenMode(%q) returned %+v instead of expected %+v", tt.mode, got, tt.want)
		}
	}
}

func TestSeekParksAtBlockEnd(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	f, err := fs.OpenFile("/f", "w+")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	// 16 payload bytes + 16 header bytes exactly fill one 32-byte block
	if _, err := f.Write(make([]byte, 16)); err != nil {
		t.Fatalf("Write returned unexpected error %v", err)
	}
	if got := fs.chainLength(f.firstBlock); got != 1 {
		t.Fatalf("chain length is %d instead of expected 1", got)
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		t.Fatalf("Seek returned unexpected error %v", err)
	}
	if f.blockOffset != fs.blockSize {
		t.Errorf("cursor parked at offset %d instead of expected %d", f.blockOffset, fs.blockSize)
	}
	if f.currentBlock != f.firstBlock {
		t.Errorf("cursor parked on block %d instead of the last allocated block %d", f.currentBlock, f.firstBlock)
	}

	// the next write rolls onto a fresh block
	if _, err := f.Write([]byte{0xAA}); err != nil {
		t.Fatalf("Write after parking returned unexpected error %v", err)
	}
	if got := fs.chainLength(f.firstBlock); got != 2 {
		t.Errorf("chain length after the parked write is %d instead of expected 2", got)
	}
	checkFreeBlocks(t, fs)
}

func TestWriteTruncatesOnFirstWrite(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	f, err := fs.OpenFile("/f", "w+")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	if _, err := f.Write(make([]byte, 100)); err != nil {
		t.Fatalf("Write returned unexpected error %v", err)
	}
	f.Close()

	// reopening for write shrinks the file to what gets written
	f, err = fs.OpenFile("/f", "w")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	if _, err := f.Write([]byte("tiny")); err != nil {
		t.Fatalf("Write returned unexpected error %v", err)
	}
	if got := f.Size(); got != 4 {
		t.Errorf("size after truncating write is %d instead of expected 4", got)
	}
	if got := fs.chainLength(f.firstBlock); got != 1 {
		t.Errorf("chain length after truncating write is %d instead of expected 1", got)
	}

	// the second write through the same handle grows instead
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek returned unexpected error %v", err)
	}
	if _, err := f.Write([]byte("hi")); err != nil {
		t.Fatalf("Write returned unexpected error %v", err)
	}
	if got := f.Size(); got != 4 {
		t.Errorf("size after a short second write is %d instead of expected 4", got)
	}
	f.Close()
	checkFreeBlocks(t, fs)
}

func TestWriteNoFreeBlocks(t *testing.T) {
	fs := newTestFS(t, 32, 32)

	f, err := fs.OpenFile("/f", "w+")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	if _, err := f.Write(make([]byte, 64*32)); err != ErrNoFreeBlocks {
		t.Errorf("oversized write returned %v instead of expected %v", err, ErrNoFreeBlocks)
	}
	// the partially grown chain stays consistent
	if got := f.Size(); got != 0 {
		t.Errorf("size after a failed write is %d instead of expected 0", got)
	}
	checkFreeBlocks(t, fs)
}

func TestOpenFileAt(t *testing.T) {
	fs := newTestFS(t, 32, 32)
	if _, err := fs.OpenFileAt(-1); err != ErrInvalidBlock {
		t.Errorf("OpenFileAt(-1) returned %v instead of expected %v", err, ErrInvalidBlock)
	}
	if _, err := fs.OpenFileAt(32); err != ErrInvalidBlock {
		t.Errorf("OpenFileAt(32) returned %v instead of expected %v", err, ErrInvalidBlock)
	}

	if err := fs.CreateFile("/f"); err != nil {
		t.Fatalf("CreateFile returned unexpected error %v", err)
	}
	entries, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir returned unexpected error %v", err)
	}
	f, err := fs.OpenFileAt(entries[0].FirstBlock)
	if err != nil {
		t.Fatalf("OpenFileAt returned unexpected error %v", err)
	}
	if _, err := f.Write([]byte("by block")); err != nil {
		t.Errorf("Write through a by-block handle returned unexpected error %v", err)
	}
}

func TestFileTimestamps(t *testing.T) {
	fs := newTestFS(t, 64, 32)
	if err := fs.CreateFile("/f"); err != nil {
		t.Fatalf("CreateFile returned unexpected error %v", err)
	}
	f, err := fs.OpenFile("/f", "r")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	if got := f.CreatedAt(); !got.Equal(testClock) {
		t.Errorf("creation time is %v instead of expected %v", got, testClock)
	}
	if got := f.ModifiedAt(); !got.Equal(testClock) {
		t.Errorf("modification time is %v instead of expected %v", got, testClock)
	}
}

func TestChtimes(t *testing.T) {
	fs := newTestFS(t, 64, 32)
	if err := fs.CreateFile("/f"); err != nil {
		t.Fatalf("CreateFile returned unexpected error %v", err)
	}
	created := testClock.AddDate(-1, 0, 0)
	modified := testClock.AddDate(0, 1, 2)
	if err := fs.Chtimes("/f", created, modified); err != nil {
		t.Fatalf("Chtimes returned unexpected error %v", err)
	}
	f, err := fs.OpenFile("/f", "r")
	if err != nil {
		t.Fatalf("OpenFile returned unexpected error %v", err)
	}
	if got := f.CreatedAt(); !got.Equal(created) {
		t.Errorf("creation time is %v instead of expected %v", got, created)
	}
	if got := f.ModifiedAt(); !got.Equal(modified) {
		t.Errorf("modification time is %v instead of expected %v", got, modified)
	}

	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir returned unexpected error %v", err)
	}
	if err := fs.Chtimes("/d", created, modified); err != ErrNotAFile {
		t.Errorf("Chtimes on a directory returned %v instead of expected %v", err, ErrNotAFile)
	}
}
