package triepack

import "errors"

// Builder errors. The builder fails fast: after any of these the
// partially built trie must be discarded.
var (
	// ErrEmptyKey is returned when Add is called with a zero-length key.
	ErrEmptyKey = errors.New("triepack: empty key")

	// ErrOutOfOrder is returned when a key compares lexicographically
	// below the previously added key without being a prefix of it.
	ErrOutOfOrder = errors.New("triepack: key out of order")

	// ErrPrefixKey is returned when a key equals, extends, or is a proper
	// prefix of the previously added key. The sentinel convention (see Key.WithSentinel)
	// makes this unreachable for well-formed input.
	ErrPrefixKey = errors.New("triepack: key equals or extends previous key")

	// ErrFieldOverflow is returned when a value does not fit its header
	// field: more than 256 children on one node, or an edge label still
	// longer than 16 bytes after phantomization.
	ErrFieldOverflow = errors.New("triepack: header field overflow")

	// ErrTooLarge is returned when the output buffer or the term-id
	// counter would exceed 32 bits.
	ErrTooLarge = errors.New("triepack: trie exceeds 32-bit limits")

	// ErrFinished is returned when Add or Finish is called on a builder
	// whose Finish has already run.
	ErrFinished = errors.New("triepack: builder already finished")
)

// Reader errors.
var (
	// ErrTruncated is returned when a decode runs past the end of the
	// buffer.
	ErrTruncated = errors.New("triepack: truncated buffer")

	// ErrZeroPointer is returned when a decoded pointer field is zero,
	// which no correct writer emits: term ids start at 1 and backward
	// offsets are strictly positive.
	ErrZeroPointer = errors.New("triepack: zero pointer value")
)

// Container errors (Save/Load).
var (
	// ErrBadMagic is returned when a container does not start with the
	// triepack magic bytes or carries an unknown version.
	ErrBadMagic = errors.New("triepack: bad magic or version")

	// ErrBadChecksum is returned when the container checksum does not
	// match its contents.
	ErrBadChecksum = errors.New("triepack: checksum mismatch")
)
