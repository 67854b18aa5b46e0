// Package fingerprint computes cheap content fingerprints used to detect
// duplicate files and to compare folder trees.
//
// A fingerprint hashes at most two 64 KiB windows of a file (the head, and
// the tail when the file is longer than 128 KiB) followed by the file's
// length. Two files that differ only in the unread middle region produce
// the same fingerprint. The digest is xxhash64, which is fast but not
// resistant to deliberately crafted collisions.
package fingerprint

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

const (
	// WindowSize is the size of each hashed window.
	WindowSize = 64 * 1024

	// TailThreshold is the length above which the tail window is hashed too.
	TailThreshold = 2 * WindowSize
)

// Fingerprint identifies file content by digest and length.
type Fingerprint struct {
	Digest uint64 `json:"digest"`
	Size   int64  `json:"size"`
}

// String renders the digest as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.Digest)
}

// Hasher fingerprints files by path.
type Hasher interface {
	Hash(path string) (Fingerprint, error)
}

// Direct is a Hasher that reads the file every time.
type Direct struct{}

// Hash implements Hasher.
func (Direct) Hash(path string) (Fingerprint, error) {
	return Compute(path)
}

// Compute fingerprints the file at path. Open failures and short reads
// return a *types.PathError of kind types.ErrIO.
func Compute(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, types.IOError("fingerprint", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, types.IOError("fingerprint", path, err)
	}

	fp, err := FromReader(f, info.Size())
	if err != nil {
		return Fingerprint{}, types.IOError("fingerprint", path, err)
	}
	return fp, nil
}

// FromReader fingerprints size bytes of content available from r.
func FromReader(r io.ReadSeeker, size int64) (Fingerprint, error) {
	h := xxhash.New()
	buf := make([]byte, WindowSize)

	head := int64(WindowSize)
	if size < head {
		head = size
	}
	if _, err := io.ReadFull(r, buf[:head]); err != nil {
		return Fingerprint{}, fmt.Errorf("reading head window: %w", err)
	}
	_, _ = h.Write(buf[:head])

	if size > TailThreshold {
		if _, err := r.Seek(-WindowSize, io.SeekEnd); err != nil {
			return Fingerprint{}, fmt.Errorf("seeking tail window: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return Fingerprint{}, fmt.Errorf("reading tail window: %w", err)
		}
		_, _ = h.Write(buf)
	}

	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(size))
	_, _ = h.Write(length[:])

	return Fingerprint{Digest: h.Sum64(), Size: size}, nil
}
