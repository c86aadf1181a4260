package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/djherbis/times.v1"

	fatfs "github.com/Cicim/fat-fs"
)

// runShell reads commands from stdin until "exit" or EOF. Errors are
// printed and the loop keeps going.
func runShell(log *logrus.Entry, fs *fatfs.FileSystem) error {
	fmt.Println("Welcome to FAT Manager. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", fs.Getwd())
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return nil
		}
		if err := runCommand(fs, args); err != nil {
			log.WithField("command", args[0]).WithError(err).Debug("command failed")
			fmt.Printf("%s error: %s\n", args[0], err)
		}
	}
}

func runCommand(fs *fatfs.FileSystem, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ls":
		path := fs.Getwd()
		if len(rest) > 0 {
			path = rest[0]
		}
		entries, err := fs.ReadDir(path)
		if err != nil {
			return err
		}
		for _, ent := range entries {
			if ent.IsDir() {
				fmt.Printf("%s/\n", ent.Name)
			} else {
				fmt.Println(ent.Name)
			}
		}
		return nil

	case "cd":
		return fs.Chdir(arg(rest, 0))

	case "pwd":
		fmt.Println(fs.Getwd())
		return nil

	case "mkdir":
		return fs.Mkdir(arg(rest, 0))

	case "rmdir":
		return fs.RemoveDir(arg(rest, 0))

	case "touch":
		return fs.CreateFile(arg(rest, 0))

	case "rm":
		return fs.RemoveFile(arg(rest, 0))

	case "cat":
		f, err := fs.OpenFile(arg(rest, 0), "r")
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(os.Stdout, f); err != nil {
			return err
		}
		fmt.Println()
		return nil

	case "write":
		return writeString(fs, arg(rest, 0), joinFrom(rest, 1), "w+")

	case "append":
		return writeString(fs, arg(rest, 0), joinFrom(rest, 1), "a+")

	case "mv":
		return fs.Move(arg(rest, 0), arg(rest, 1))

	case "cp":
		return fs.Copy(arg(rest, 0), arg(rest, 1))

	case "size":
		size, blocks, err := fs.Size(arg(rest, 0))
		if err != nil {
			return err
		}
		fmt.Printf("%d bytes in %d blocks\n", size, blocks)
		return nil

	case "free":
		fmt.Printf("%d of %d blocks free\n", fs.FreeBlocks(), fs.BlocksCount())
		return nil

	case "import":
		return importFile(fs, arg(rest, 0), arg(rest, 1))

	case "export":
		return exportFile(fs, arg(rest, 0), arg(rest, 1))

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// arg fetches a positional argument, empty when missing so path
// validation reports the problem.
func arg(rest []string, i int) string {
	if i < len(rest) {
		return rest[i]
	}
	return ""
}

func joinFrom(rest []string, i int) string {
	if i >= len(rest) {
		return ""
	}
	return strings.Join(rest[i:], " ")
}

func writeString(fs *fatfs.FileSystem, path, data, mode string) error {
	f, err := fs.OpenFile(path, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte(data)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// importFile copies a host file into the image, carrying the host's own
// timestamps onto the imported file.
func importFile(fs *fatfs.FileSystem, hostPath, path string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	if err := writeString(fs, path, string(data), "w+"); err != nil {
		return err
	}

	ts, err := times.Stat(hostPath)
	if err != nil {
		return err
	}
	created := ts.ModTime()
	if ts.HasBirthTime() {
		created = ts.BirthTime()
	}
	return fs.Chtimes(path, created, ts.ModTime())
}

// exportFile copies a file out of the image into a host file.
func exportFile(fs *fatfs.FileSystem, path, hostPath string) error {
	f, err := fs.OpenFile(path, "r")
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.Create(hostPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
