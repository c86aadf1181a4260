package fatfs

import "fmt"

// entryLoc addresses one directory entry slot: a block index plus an entry
// index inside that block. Handles and internal walks carry locations, not
// pointers into the mapping, because deletion compaction moves entries.
type entryLoc struct {
	block int
	index int
}

// entrySlice returns the raw 32 bytes of the slot at loc.
func (fs *FileSystem) entrySlice(loc entryLoc) []byte {
	b := fs.block(loc.block)
	return b[loc.index*dirEntrySize : (loc.index+1)*dirEntrySize]
}

func (fs *FileSystem) putEntry(loc entryLoc, e DirEntry) {
	e.putBytes(fs.entrySlice(loc))
}

func (fs *FileSystem) zeroEntry(loc entryLoc) {
	s := fs.entrySlice(loc)
	for i := range s {
		s[i] = 0
	}
}

// dirCursor walks the entries of a directory across its chained blocks.
// count is the number of entries already yielded.
type dirCursor struct {
	fs    *FileSystem
	block int
	count int
}

// next yields the entry at the cursor and advances. At the DIR_END
// sentinel it returns the sentinel's location with ErrEndOfDir and does
// not advance. A chain that runs out before a sentinel is found is a
// structural error, reported as ErrDirEndNotFound.
func (c *dirCursor) next() (entryLoc, DirEntry, error) {
	loc := entryLoc{block: c.block, index: c.count % c.fs.entriesPerBlock}
	ent := dirEntryFromBytes(c.fs.entrySlice(loc))
	if ent.Type == TypeDirEnd {
		return loc, ent, ErrEndOfDir
	}

	c.count++
	if c.count%c.fs.entriesPerBlock == 0 {
		next := c.fs.fatNext(c.block)
		if next == FatEOF {
			return loc, ent, ErrDirEndNotFound
		}
		c.block = next
	}
	return loc, ent, nil
}

// dirFirstBlock resolves a canonical absolute path to the first block of
// the directory it names. A missing component is ErrFileNotFound; a
// component that is a file is ErrNotADirectory.
func (fs *FileSystem) dirFirstBlock(abs string) (int, error) {
	block := RootDirBlock
	for _, name := range splitSegments(abs) {
		cur := dirCursor{fs: fs, block: block}
		for {
			_, ent, err := cur.next()
			if err == ErrEndOfDir {
				return FatEOF, ErrFileNotFound
			}
			if err != nil {
				return FatEOF, err
			}
			if ent.Name != name {
				continue
			}
			if ent.Type != TypeDirectory {
				return FatEOF, ErrNotADirectory
			}
			block = ent.FirstBlock
			break
		}
	}
	return block, nil
}

func splitSegments(abs string) []string {
	if abs == "/" {
		return nil
	}
	var segs []string
	start := 1
	for i := 1; i <= len(abs); i++ {
		if i == len(abs) || abs[i] == '/' {
			segs = append(segs, abs[start:i])
			start = i + 1
		}
	}
	return segs
}

// lookup scans the directory starting at dirBlock for an entry called
// name. A miss is ErrFileNotFound.
func (fs *FileSystem) lookup(dirBlock int, name string) (entryLoc, DirEntry, error) {
	cur := dirCursor{fs: fs, block: dirBlock}
	for {
		loc, ent, err := cur.next()
		if err == ErrEndOfDir {
			return entryLoc{}, DirEntry{}, ErrFileNotFound
		}
		if err != nil {
			return entryLoc{}, DirEntry{}, err
		}
		if ent.Name == name {
			return loc, ent, nil
		}
	}
}

// dirInsert appends an entry named name to the directory at dirBlock.
// With childBlock == FatEOF a fresh, zeroed block is allocated for the new
// entity; otherwise the given block is adopted (move and copy reuse
// chains this way). The directory chain is extended when the fresh
// sentinel would cross into a block that does not exist yet. Returns the
// entry's first block.
func (fs *FileSystem) dirInsert(dirBlock, childBlock int, typ EntryType, name string) (int, error) {
	if name == "" || len(name) >= MaxFilenameLength {
		return FatEOF, ErrInvalidPath
	}

	cur := dirCursor{fs: fs, block: dirBlock}
	var sentinel entryLoc
	for {
		loc, ent, err := cur.next()
		if err == ErrEndOfDir {
			sentinel = loc
			break
		}
		if err != nil {
			return FatEOF, err
		}
		if ent.Name == name {
			return FatEOF, ErrFileExists
		}
	}

	// The new entry overwrites the sentinel; the replacement sentinel may
	// need a block of its own when the current last block is full.
	ext := FatEOF
	if (cur.count+1)%fs.entriesPerBlock == 0 {
		nb, err := fs.allocBlock()
		if err != nil {
			return FatEOF, err
		}
		fs.fatSetNext(sentinel.block, nb)
		ext = nb
	}

	child := childBlock
	if child == FatEOF {
		nb, err := fs.allocBlock()
		if err != nil {
			if ext != FatEOF {
				fs.fatSetNext(sentinel.block, FatEOF)
				fs.freeBlock(ext)
			}
			return FatEOF, err
		}
		child = nb
	}

	fs.putEntry(sentinel, DirEntry{Name: name, Type: typ, FirstBlock: child})
	if ext == FatEOF {
		fs.zeroEntry(entryLoc{block: sentinel.block, index: sentinel.index + 1})
	}
	// an extension block comes back zeroed, sentinel included

	return child, nil
}

// entryFilter narrows what dirDelete accepts.
type entryFilter int

const (
	filterAny entryFilter = iota
	filterFile
	filterDirectory
)

// dirDelete removes the entry called name from the directory at dirBlock
// and returns the removed entry's first block, which the caller is
// responsible for unlinking (move deliberately does not). The last live
// entry is swapped into the freed slot to keep the directory dense, so
// entry order is not preserved. A trailing block left holding only the old
// sentinel is released.
func (fs *FileSystem) dirDelete(dirBlock int, filter entryFilter, name string) (int, error) {
	cur := dirCursor{fs: fs, block: dirBlock}

	var (
		found     bool
		target    entryLoc
		targetEnt DirEntry
		last      entryLoc
		lastEnt   DirEntry
		sentinel  entryLoc
	)
	for {
		loc, ent, err := cur.next()
		if err == ErrEndOfDir {
			sentinel = loc
			break
		}
		if err != nil {
			return FatEOF, err
		}
		if !found && ent.Name == name {
			found, target, targetEnt = true, loc, ent
		}
		last, lastEnt = loc, ent
	}
	if !found {
		return FatEOF, ErrFileNotFound
	}

	switch {
	case filter == filterFile && targetEnt.Type == TypeDirectory:
		return FatEOF, ErrNotAFile
	case filter == filterDirectory && targetEnt.Type == TypeFile:
		return FatEOF, ErrNotADirectory
	}

	// Swap the final live entry into the hole, then retire its old slot as
	// the new sentinel.
	if last != target {
		fs.putEntry(target, lastEnt)
	}
	fs.zeroEntry(last)

	// The old sentinel alone on a trailing block means that block is no
	// longer reachable below the new sentinel.
	if sentinel.index == 0 && sentinel.block != dirBlock {
		fs.freeBlock(sentinel.block)
		fs.fatSetNext(last.block, FatEOF)
	}

	return targetEnt.FirstBlock, nil
}

// recursiveSize measures the entity starting at block. Files report their
// header's payload size and the ceil-divided chain length. Directories sum
// their children and add their own entry chain, sentinel included.
func (fs *FileSystem) recursiveSize(block int, typ EntryType) (size, blocks int, err error) {
	if typ == TypeFile {
		size = fs.fileSizeAt(block)
		blocks = (size + fileHeaderSize + fs.blockSize - 1) / fs.blockSize
		return size, blocks, nil
	}

	cur := dirCursor{fs: fs, block: block}
	for {
		_, ent, err := cur.next()
		if err == ErrEndOfDir {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		childSize, childBlocks, err := fs.recursiveSize(ent.FirstBlock, ent.Type)
		if err != nil {
			return 0, 0, err
		}
		size += childSize
		blocks += childBlocks
	}

	entries := cur.count + 1 // sentinel included
	blocks += (entries + fs.entriesPerBlock - 1) / fs.entriesPerBlock
	size += entries * dirEntrySize
	return size, blocks, nil
}

// dirEmpty depth-first erases every entry of the directory at dirBlock,
// unlinking each child chain. The directory's own chain is left to the
// caller.
func (fs *FileSystem) dirEmpty(dirBlock int) error {
	cur := dirCursor{fs: fs, block: dirBlock}
	for {
		_, ent, err := cur.next()
		if err == ErrEndOfDir {
			return nil
		}
		if err != nil {
			return err
		}
		if ent.Type == TypeDirectory {
			if err := fs.dirEmpty(ent.FirstBlock); err != nil {
				return err
			}
		}
		fs.unlinkChain(ent.FirstBlock)
	}
}

// Mkdir creates a directory at path. The parent must already exist.
func (fs *FileSystem) Mkdir(path string) error {
	dir, leaf, err := fs.components(path)
	if err != nil {
		return err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return err
	}
	_, err = fs.dirInsert(parent, FatEOF, TypeDirectory, leaf)
	return err
}

// RemoveDir erases the directory at path and everything below it.
// Removing "/" empties the root in place.
func (fs *FileSystem) RemoveDir(path string) error {
	abs, err := fs.Abs(path)
	if err != nil {
		return err
	}

	if abs == "/" {
		if err := fs.dirEmpty(RootDirBlock); err != nil {
			return err
		}
		fs.unlinkChain(RootDirBlock)
		// the root block never leaves the bitmap
		fs.setBlock(RootDirBlock, true)
		fs.zeroEntry(entryLoc{block: RootDirBlock, index: 0})
		return nil
	}

	dir, leaf, err := splitPath(abs)
	if err != nil {
		return err
	}
	parent, err := fs.dirFirstBlock(dir)
	if err != nil {
		return err
	}
	child, err := fs.dirDelete(parent, filterDirectory, leaf)
	if err != nil {
		return err
	}
	if err := fs.dirEmpty(child); err != nil {
		return err
	}
	fs.unlinkChain(child)
	return nil
}

// Directory is an open handle iterating a directory's entries.
type Directory struct {
	fs  *FileSystem
	cur dirCursor
}

// OpenDir opens a directory for listing.
func (fs *FileSystem) OpenDir(path string) (*Directory, error) {
	abs, err := fs.Abs(path)
	if err != nil {
		return nil, err
	}
	block, err := fs.dirFirstBlock(abs)
	if err != nil {
		return nil, err
	}
	return &Directory{fs: fs, cur: dirCursor{fs: fs, block: block}}, nil
}

// Read returns the next entry, or ErrEndOfDir after the last one.
// ErrEndOfDir is a terminator, not a failure; the handle stays usable and
// keeps reporting it.
func (d *Directory) Read() (DirEntry, error) {
	if d == nil || d.fs == nil {
		return DirEntry{}, ErrListInvalidArgument
	}
	_, ent, err := d.cur.next()
	if err != nil {
		return DirEntry{}, err
	}
	return ent, nil
}

// Close releases the handle.
func (d *Directory) Close() error {
	if d == nil || d.fs == nil {
		return ErrListInvalidArgument
	}
	d.fs = nil
	return nil
}

// ReadDir lists every entry of the directory at path in iteration order.
func (fs *FileSystem) ReadDir(path string) ([]DirEntry, error) {
	d, err := fs.OpenDir(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	var entries []DirEntry
	for {
		ent, err := d.Read()
		if err == ErrEndOfDir {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		entries = append(entries, ent)
	}
}
