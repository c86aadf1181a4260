package fatfs

import "strings"

// Abs resolves path against the current directory into its canonical
// absolute form: no `.` or `..` segments, no duplicate or trailing slashes
// (the root stays "/"). Segments that merely start with a dot, like "..."
// or ".rc", are rejected as malformed rather than treated as names.
func (fs *FileSystem) Abs(path string) (string, error) {
	return absolutePath(fs.cwd, path)
}

func absolutePath(cwd, path string) (string, error) {
	if path == "" {
		return "", ErrInvalidPath
	}

	var stack []string
	if !strings.HasPrefix(path, "/") {
		for _, seg := range strings.Split(cwd, "/") {
			if seg != "" {
				stack = append(stack, seg)
			}
		}
	}

	for _, seg := range strings.Split(path, "/") {
		switch {
		case seg == "" || seg == ".":
			// duplicate slash, trailing slash, or a no-op segment
		case seg == "..":
			if len(stack) == 0 {
				return "", ErrInvalidPath
			}
			stack = stack[:len(stack)-1]
		case strings.HasPrefix(seg, "."):
			return "", ErrInvalidPath
		default:
			stack = append(stack, seg)
		}
	}

	abs := "/" + strings.Join(stack, "/")
	if len(abs) >= MaxPathLength {
		return "", ErrInvalidPath
	}
	return abs, nil
}

// splitPath splits a canonical absolute path into its parent directory and
// leaf name. The root has no leaf, so splitting "/" fails.
func splitPath(abs string) (dir, leaf string, err error) {
	if abs == "/" {
		return "", "", ErrInvalidPath
	}
	i := strings.LastIndexByte(abs, '/')
	dir = abs[:i]
	if dir == "" {
		dir = "/"
	}
	return dir, abs[i+1:], nil
}

// components resolves path and splits it in one step.
func (fs *FileSystem) components(path string) (dir, leaf string, err error) {
	abs, err := fs.Abs(path)
	if err != nil {
		return "", "", err
	}
	return splitPath(abs)
}
