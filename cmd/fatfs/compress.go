package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
)

// A compressor turns snapshot streams into image bytes and back. The
// snapshot's extension picks the implementation.
type compressor interface {
	compress(w io.Writer) (io.WriteCloser, error)
	decompress(r io.Reader) (io.Reader, error)
}

func compressorFor(snapshot string) (compressor, error) {
	switch {
	case strings.HasSuffix(snapshot, ".lz4"):
		return lz4Compressor{}, nil
	case strings.HasSuffix(snapshot, ".xz"):
		return xzCompressor{}, nil
	}
	return nil, fmt.Errorf("unknown snapshot format for %s (want .lz4 or .xz)", snapshot)
}

type lz4Compressor struct{}

func (lz4Compressor) compress(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (lz4Compressor) decompress(r io.Reader) (io.Reader, error) {
	return lz4.NewReader(r), nil
}

type xzCompressor struct{}

func (xzCompressor) compress(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func (xzCompressor) decompress(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}

// packImage writes a compressed snapshot of the image file.
func packImage(imgPath, snapshot string) error {
	c, err := compressorFor(snapshot)
	if err != nil {
		return err
	}

	in, err := os.Open(imgPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(snapshot)
	if err != nil {
		return err
	}
	cw, err := c.compress(out)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(cw, in); err != nil {
		cw.Close()
		out.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// unpackImage restores an image file from a compressed snapshot.
func unpackImage(snapshot, imgPath string) error {
	c, err := compressorFor(snapshot)
	if err != nil {
		return err
	}

	in, err := os.Open(snapshot)
	if err != nil {
		return err
	}
	defer in.Close()

	cr, err := c.decompress(in)
	if err != nil {
		return err
	}

	out, err := os.Create(imgPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, cr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
