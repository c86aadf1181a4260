package fatfs

import "encoding/binary"

// Magic identifies an image as a FAT filesystem image.
const Magic = 0xFA7F50C0

// headerSize is the byte length of the image header.
const headerSize = 16

// fatHeader is the fixed header at offset 0 of every image.
// On disk: magic, block_size, blocks_count, free_blocks, little-endian u32 each.
type fatHeader struct {
	magic       uint32
	blockSize   uint32
	blocksCount uint32
	freeBlocks  uint32
}

func headerFromBytes(b []byte) fatHeader {
	return fatHeader{
		magic:       binary.LittleEndian.Uint32(b[0:4]),
		blockSize:   binary.LittleEndian.Uint32(b[4:8]),
		blocksCount: binary.LittleEndian.Uint32(b[8:12]),
		freeBlocks:  binary.LittleEndian.Uint32(b[12:16]),
	}
}

func (h fatHeader) putBytes(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], h.magic)
	binary.LittleEndian.PutUint32(b[4:8], h.blockSize)
	binary.LittleEndian.PutUint32(b[8:12], h.blocksCount)
	binary.LittleEndian.PutUint32(b[12:16], h.freeBlocks)
}
