// Package diskimage holds the two emulated block devices' backing storage:
// fixed-size in-memory arrays loaded from host files at startup and flushed
// back on shutdown, per spec.md §4.4.
package diskimage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NumBlocks is the number of 512-byte blocks in each emulated device,
// matching the 24-bit block count the supervisor advertises in STATUS
// replies.
const NumBlocks = 65536

// BlockSize is the size in bytes of one block.
const BlockSize = 512

// Block is one addressable unit of storage.
type Block [BlockSize]byte

// twoMGHeaderSize is the length of the prefix a ".2mg" file carries before
// its first raw block, transcribed from loadDiskImages's `fread(..., 64, 1,
// fd)` skip.
const twoMGHeaderSize = 64

// savedDirName and fallbackName mirror saveDiskImage's hardcoded paths.
const (
	savedDirName = "Saved"
	fallbackName = "asdfghjkl.po"
)

// Image is one device's block store.
type Image struct {
	blocks [NumBlocks]Block
	dirty  bool
	path   string
}

// Load reads path into a freshly zeroed Image. A ".2mg" suffix causes the
// 64-byte header to be skipped before block 0; anything else is read as raw
// ".po" blocks. Blocks past end-of-file stay zero-filled. A missing or
// unreadable file yields a zero-filled Image and a non-nil error -- callers
// should log and continue per spec.md §7, "Host-side errors".
func Load(path string) (*Image, error) {
	img := &Image{path: path}

	f, err := os.Open(path)
	if err != nil {
		return img, fmt.Errorf("diskimage: open %s: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".2mg") {
		if _, err := io.CopyN(io.Discard, f, twoMGHeaderSize); err != nil {
			return img, fmt.Errorf("diskimage: skip 2mg header of %s: %w", path, err)
		}
	}

	for i := 0; i < NumBlocks; i++ {
		if _, err := io.ReadFull(f, img.blocks[i][:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return img, fmt.Errorf("diskimage: read block %d of %s: %w", i, path, err)
		}
	}

	return img, nil
}

// ReadBlock returns a pointer to block n's storage. n must be < NumBlocks;
// range checking is the caller's responsibility (spec.md §4.3, READBLOCK).
func (img *Image) ReadBlock(n uint32) *Block {
	return &img.blocks[n]
}

// WriteBlock overwrites block n's contents and marks the image dirty. n
// must be < NumBlocks.
func (img *Image) WriteBlock(n uint32, data *[BlockSize]byte) {
	img.blocks[n] = Block(*data)
	img.dirty = true
}

// Dirty reports whether any WriteBlock call has happened since Load.
func (img *Image) Dirty() bool { return img.dirty }

// Save writes the image out in raw ".po" format to <baseDir>/Saved/<basename
// of the original path>, trying a fixed fallback filename in the same
// directory if that open fails, matching saveDiskImage's two-attempt
// behavior. It is a no-op if the image was never marked dirty.
func (img *Image) Save(baseDir string) error {
	if !img.dirty {
		return nil
	}

	dir := filepath.Join(baseDir, savedDirName)
	primary := filepath.Join(dir, filepath.Base(img.path))

	if err := writeBlocks(primary, &img.blocks); err == nil {
		return nil
	}

	fallback := filepath.Join(dir, fallbackName)
	if err := writeBlocks(fallback, &img.blocks); err != nil {
		return fmt.Errorf("diskimage: save %s failed, fallback %s also failed: %w", primary, fallback, err)
	}
	return nil
}

func writeBlocks(path string, blocks *[NumBlocks]Block) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	buf.Grow(NumBlocks * BlockSize)
	for i := range blocks {
		buf.Write(blocks[i][:])
	}
	_, err = f.Write(buf.Bytes())
	return err
}
