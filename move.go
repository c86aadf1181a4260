package fatfs

// moveData captures everything Move and Copy need to know about a source
// entity and its destination slot.
type moveData struct {
	srcType     EntryType
	srcBlock    int
	srcDirBlock int
	srcName     string
	destBlock   int
	destName    string
}

// resolveMove works out source and destination for a move or copy.
// A destination naming an existing directory receives the source inside
// it under the source's own leaf name; an existing file is a collision;
// a missing leaf renames the source into the destination's parent.
func (fs *FileSystem) resolveMove(srcPath, destPath string) (moveData, error) {
	srcAbs, err := fs.Abs(srcPath)
	if err != nil {
		return moveData{}, err
	}
	destAbs, err := fs.Abs(destPath)
	if err != nil {
		return moveData{}, err
	}
	if srcAbs == destAbs {
		return moveData{}, ErrSamePath
	}

	// splitPath refuses the root, so the root cannot be moved
	srcDir, srcName, err := splitPath(srcAbs)
	if err != nil {
		return moveData{}, err
	}
	srcDirBlock, err := fs.dirFirstBlock(srcDir)
	if err != nil {
		return moveData{}, err
	}
	_, srcEnt, err := fs.lookup(srcDirBlock, srcName)
	if err != nil {
		return moveData{}, err
	}

	data := moveData{
		srcType:     srcEnt.Type,
		srcBlock:    srcEnt.FirstBlock,
		srcDirBlock: srcDirBlock,
		srcName:     srcName,
		destName:    srcName,
	}

	if destAbs == "/" {
		data.destBlock = RootDirBlock
		return data, nil
	}

	destDir, destName, err := splitPath(destAbs)
	if err != nil {
		return moveData{}, err
	}
	destDirBlock, err := fs.dirFirstBlock(destDir)
	if err != nil {
		return moveData{}, err
	}

	_, destEnt, err := fs.lookup(destDirBlock, destName)
	switch {
	case err == nil && destEnt.Type == TypeFile:
		return moveData{}, ErrFileExists
	case err == nil:
		// an existing directory: place the source inside it
		data.destBlock = destEnt.FirstBlock
	case err == ErrFileNotFound:
		// a fresh name: rename into the destination's parent
		data.destBlock = destDirBlock
		data.destName = destName
	default:
		return moveData{}, err
	}
	return data, nil
}

// Move relocates or renames the file or directory at srcPath. The data
// blocks stay where they are: the destination entry adopts the source's
// chain and the source entry is deleted without unlinking.
func (fs *FileSystem) Move(srcPath, destPath string) error {
	data, err := fs.resolveMove(srcPath, destPath)
	if err != nil {
		return err
	}

	if _, err := fs.dirInsert(data.destBlock, data.srcBlock, data.srcType, data.destName); err != nil {
		return err
	}
	_, err = fs.dirDelete(data.srcDirBlock, filterAny, data.srcName)
	return err
}

// Copy duplicates the file or directory at srcPath, directories
// recursively. It refuses up front when the image cannot hold the copy
// plus one block of slack for the destination entry.
func (fs *FileSystem) Copy(srcPath, destPath string) error {
	data, err := fs.resolveMove(srcPath, destPath)
	if err != nil {
		return err
	}

	_, blocks, err := fs.recursiveSize(data.srcBlock, data.srcType)
	if err != nil {
		return err
	}
	if blocks+1 > fs.FreeBlocks() {
		return ErrNoFreeBlocks
	}

	newBlock, err := fs.recursiveCopy(data.srcBlock, data.srcType)
	if err != nil {
		return err
	}
	if _, err := fs.dirInsert(data.destBlock, newBlock, data.srcType, data.destName); err != nil {
		fs.unlinkChain(newBlock)
		return err
	}
	return nil
}

// recursiveCopy clones the chain starting at srcBlock into freshly
// allocated blocks. For a directory it then descends into the cloned
// entries, copying each child subtree and rewriting the clones' first
// blocks to point at the new subtrees.
func (fs *FileSystem) recursiveCopy(srcBlock int, typ EntryType) (int, error) {
	newFirst := FatEOF
	prev := FatEOF
	for src := srcBlock; src != FatEOF; src = fs.fatNext(src) {
		nb, err := fs.allocBlock()
		if err != nil {
			fs.unlinkChain(newFirst)
			return FatEOF, err
		}
		copy(fs.block(nb), fs.block(src))
		if prev == FatEOF {
			newFirst = nb
		} else {
			fs.fatSetNext(prev, nb)
		}
		prev = nb
	}

	if typ != TypeDirectory {
		return newFirst, nil
	}

	srcCur := dirCursor{fs: fs, block: srcBlock}
	newCur := dirCursor{fs: fs, block: newFirst}
	for {
		newLoc, newEnt, _ := newCur.next()
		_, srcEnt, err := srcCur.next()
		if err == ErrEndOfDir {
			return newFirst, nil
		}
		if err != nil {
			return FatEOF, err
		}

		childCopy, err := fs.recursiveCopy(srcEnt.FirstBlock, srcEnt.Type)
		if err != nil {
			return FatEOF, err
		}
		newEnt.FirstBlock = childCopy
		fs.putEntry(newLoc, newEnt)
	}
}
