package fatfs

import "encoding/binary"

// The FAT table maps every block to the next block of its chain, or FatEOF
// for a chain tail. Entries are signed little-endian 32-bit values.

// fatNext returns the block following b in its chain.
func (fs *FileSystem) fatNext(b int) int {
	return int(int32(binary.LittleEndian.Uint32(fs.fat[b*4 : b*4+4])))
}

// fatSetNext links block b to next.
func (fs *FileSystem) fatSetNext(b, next int) {
	binary.LittleEndian.PutUint32(fs.fat[b*4:b*4+4], uint32(int32(next)))
}

// unlinkChain walks the chain from start, freeing every block and resetting
// its FAT entry. Passing FatEOF is a no-op.
func (fs *FileSystem) unlinkChain(start int) {
	for b := start; b != FatEOF; {
		next := fs.fatNext(b)
		fs.freeBlock(b)
		b = next
	}
}

// chainLength counts the blocks of the chain starting at start.
func (fs *FileSystem) chainLength(start int) int {
	n := 0
	for b := start; b != FatEOF; b = fs.fatNext(b) {
		n++
	}
	return n
}

// resizeChain grows or shrinks the chain starting at first until it holds
// exactly ceil(totalBytes/blockSize) blocks, at least one. Growth links
// freshly allocated blocks at the tail; shrinking unlinks the suffix.
// On allocator exhaustion the blocks linked so far stay on the chain and
// the image remains consistent.
func (fs *FileSystem) resizeChain(first, totalBytes int) error {
	needed := (totalBytes + fs.blockSize - 1) / fs.blockSize
	if needed < 1 {
		needed = 1
	}

	cur := first
	for count := 1; count < needed; count++ {
		next := fs.fatNext(cur)
		if next == FatEOF {
			nb, err := fs.allocBlock()
			if err != nil {
				return err
			}
			fs.fatSetNext(cur, nb)
			next = nb
		}
		cur = next
	}

	if tail := fs.fatNext(cur); tail != FatEOF {
		fs.fatSetNext(cur, FatEOF)
		fs.unlinkChain(tail)
	}
	return nil
}
