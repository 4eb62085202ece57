package triepack

import (
	"bytes"
	"errors"
	"testing"
)

func TestBitWriterPacksMSBFirst(t *testing.T) {
	// ten 4-bit fields pack into five bytes, high nibble first
	nums := []uint32{14, 2, 5, 8, 0, 13, 2, 7, 7, 8}
	var bw bitWriter
	var out []byte
	for _, x := range nums {
		out = bw.write(out, 4, x)
	}
	out = bw.close(out)

	want := []byte{0xE2, 0x58, 0x0D, 0x27, 0x78}
	if !bytes.Equal(out, want) {
		t.Fatalf("packed %v, want %v", out, want)
	}
}

func TestBitWriterClosePadsWithZeros(t *testing.T) {
	var bw bitWriter
	out := bw.write(nil, 3, 0b101)
	out = bw.close(out)
	if len(out) != 1 || out[0] != 0xA0 {
		t.Fatalf("expected single byte 0xA0, got %v", out)
	}

	// close on an empty writer emits nothing
	var empty bitWriter
	if got := empty.close(nil); len(got) != 0 {
		t.Fatalf("close of empty writer emitted %v", got)
	}
}

func TestBitRoundTripMixedWidths(t *testing.T) {
	fields := []struct {
		size uint
		x    uint32
	}{
		{1, 1}, {8, 0xAB}, {2, 3}, {4, 9}, {25, 0x1FFFFFF},
		{8, 0}, {12, 0x0F0F}, {1, 0}, {25, 0x1234567}, {3, 5},
	}
	var bw bitWriter
	var out []byte
	for _, f := range fields {
		out = bw.write(out, f.size, f.x)
	}
	out = bw.close(out)

	br := newBitReader(out)
	for i, f := range fields {
		got, err := br.read(f.size)
		if err != nil {
			t.Fatalf("read field %d: %v", i, err)
		}
		if got != f.x {
			t.Fatalf("field %d: read %#x, want %#x", i, got, f.x)
		}
	}
}

func TestBitWriterMasksExcessBits(t *testing.T) {
	var bw bitWriter
	out := bw.write(nil, 4, 0xFF) // only the low 4 bits belong to the field
	out = bw.close(out)
	if out[0] != 0xF0 {
		t.Fatalf("expected 0xF0, got %#x", out[0])
	}
}

func TestBitReaderTruncation(t *testing.T) {
	br := newBitReader([]byte{0xFF})
	if _, err := br.read(8); err != nil {
		t.Fatalf("unexpected error reading available bits: %v", err)
	}
	if _, err := br.read(1); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestBitReaderAdvancedBy(t *testing.T) {
	br := newBitReader([]byte{0x00, 0x00, 0x00})
	if got := br.advancedBy(); got != 0 {
		t.Fatalf("fresh reader advancedBy = %d, want 0", got)
	}
	if _, err := br.read(12); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := br.advancedBy(); got != 2 {
		t.Fatalf("after 12 bits advancedBy = %d, want 2", got)
	}
	if _, err := br.read(4); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := br.advancedBy(); got != 2 {
		t.Fatalf("after 16 bits advancedBy = %d, want 2", got)
	}
	if _, err := br.read(1); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := br.advancedBy(); got != 3 {
		t.Fatalf("after 17 bits advancedBy = %d, want 3", got)
	}
}
