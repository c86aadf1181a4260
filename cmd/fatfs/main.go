// Command fatfs drives a FAT filesystem image: one-shot operations,
// an interactive shell, and compressed image snapshots.
//
//	fatfs -img disk.img init 128 160
//	fatfs -img disk.img shell
//	fatfs -img disk.img ls /
//	fatfs -img disk.img pack disk.img.lz4
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	fatfs "github.com/Cicim/fat-fs"
)

func main() {
	var (
		imgPath = flag.String("img", "", "path to the image file")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	logger := log.WithFields(logrus.Fields{
		"session": uuid.New().String(),
		"img":     *imgPath,
	})

	args := flag.Args()
	if *imgPath == "" || len(args) == 0 {
		usage()
		os.Exit(1)
	}

	if err := run(logger, *imgPath, args); err != nil {
		logger.WithError(err).Debug("command failed")
		fmt.Fprintf(os.Stderr, "%s error: %s\n", args[0], err)
		os.Exit(1)
	}
}

func run(log *logrus.Entry, imgPath string, args []string) error {
	switch args[0] {
	case "init":
		if len(args) != 3 {
			return fmt.Errorf("usage: init <block size> <blocks count>")
		}
		blockSize, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad block size %q", args[1])
		}
		blocksCount, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad blocks count %q", args[2])
		}
		log.WithFields(logrus.Fields{
			"block_size":   blockSize,
			"blocks_count": blocksCount,
		}).Debug("initializing image")
		return fatfs.Init(imgPath, blockSize, blocksCount)

	case "pack":
		if len(args) != 2 {
			return fmt.Errorf("usage: pack <snapshot file>")
		}
		return packImage(imgPath, args[1])

	case "unpack":
		if len(args) != 2 {
			return fmt.Errorf("usage: unpack <snapshot file>")
		}
		return unpackImage(args[1], imgPath)

	case "shell":
		fs, err := fatfs.Open(imgPath)
		if err != nil {
			return err
		}
		defer fs.Close()
		log.Debug("image opened, entering shell")
		return runShell(log, fs)

	default:
		fs, err := fatfs.Open(imgPath)
		if err != nil {
			return err
		}
		defer fs.Close()
		return runCommand(fs, args)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fatfs -img <file> <command> [arguments]

Commands:
  init <block size> <blocks count>   create and format an image
  shell                              interactive mode
  pack <snapshot>                    compress the image (.lz4 or .xz)
  unpack <snapshot>                  restore the image from a snapshot
  ls, cd, pwd, mkdir, rmdir, touch, rm, cat, write, append,
  mv, cp, size, free, import, export
Use -v for debug logging.
`)
}
