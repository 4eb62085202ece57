package triepack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
)

// Container format for a persisted trie:
//
//	magic   "TPK1"            4 bytes
//	version                   1 byte
//	flags                     1 byte (0x01: bloom section present)
//	root offset               4 bytes big-endian
//	term count                4 bytes big-endian
//	trie length               4 bytes big-endian
//	trie bytes
//	bloom length + bloom bytes (when flagged)
//	CRC-32 (IEEE) of everything above, 4 bytes big-endian
//
// The record buffer itself is position-dependent, so the container is a
// plain framing around it, not a relocatable format.

var containerMagic = [4]byte{'T', 'P', 'K', '1'}

const (
	containerVersion  = 1
	flagBloom         = 0x01
	containerHeadLen  = 18
	containerTrailLen = 4
)

// WriteTo writes the trie, its metadata and its bloom filter (when
// present) as a single checksummed container. It implements
// io.WriterTo.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Write(containerMagic[:])
	buf.WriteByte(containerVersion)

	var flags byte
	if t.filter != nil {
		flags |= flagBloom
	}
	buf.WriteByte(flags)

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], t.root)
	buf.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], t.count)
	buf.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], uint32(len(t.data)))
	buf.Write(u32[:])
	buf.Write(t.data)

	if t.filter != nil {
		var fb bytes.Buffer
		if _, err := t.filter.WriteTo(&fb); err != nil {
			return 0, fmt.Errorf("triepack: write bloom section: %w", err)
		}
		binary.BigEndian.PutUint32(u32[:], uint32(fb.Len()))
		buf.Write(u32[:])
		buf.Write(fb.Bytes())
	}

	binary.BigEndian.PutUint32(u32[:], crc32.ChecksumIEEE(buf.Bytes()))
	buf.Write(u32[:])

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadTrie reads a container written by WriteTo and returns the trie it
// frames.
func ReadTrie(r io.Reader) (*Trie, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("triepack: read container: %w", err)
	}
	if len(raw) < containerHeadLen+containerTrailLen {
		return nil, ErrTruncated
	}

	body, trail := raw[:len(raw)-containerTrailLen], raw[len(raw)-containerTrailLen:]
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(trail) {
		return nil, ErrBadChecksum
	}
	if !bytes.Equal(body[:4], containerMagic[:]) || body[4] != containerVersion {
		return nil, ErrBadMagic
	}
	flags := body[5]
	root := binary.BigEndian.Uint32(body[6:10])
	count := binary.BigEndian.Uint32(body[10:14])
	trieLen := int(binary.BigEndian.Uint32(body[14:18]))

	rest := body[containerHeadLen:]
	if trieLen > len(rest) {
		return nil, ErrTruncated
	}
	t := &Trie{
		data:  rest[:trieLen:trieLen],
		root:  root,
		count: count,
	}

	if flags&flagBloom != 0 {
		rest = rest[trieLen:]
		if len(rest) < 4 {
			return nil, ErrTruncated
		}
		bloomLen := int(binary.BigEndian.Uint32(rest[:4]))
		if bloomLen > len(rest)-4 {
			return nil, ErrTruncated
		}
		var f bloom.BloomFilter
		if _, err := f.ReadFrom(bytes.NewReader(rest[4 : 4+bloomLen])); err != nil {
			return nil, fmt.Errorf("triepack: read bloom section: %w", err)
		}
		t.filter = &f
	}
	return t, nil
}

// Save writes the trie container to path, creating parent directories
// as needed.
func (t *Trie) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("triepack: create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("triepack: create container file: %w", err)
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a trie container from path.
func Load(path string) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("triepack: open container file: %w", err)
	}
	defer f.Close()
	return ReadTrie(f)
}
