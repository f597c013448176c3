// Package iostream is the seekable byte-stream abstraction every decoder
// reads from. Every method is total: failures are reported through a
// sentinel return (0, -1, or a zero value) rather than a panic, so the
// stream can be probed from the decode path without risking a crash on
// the audio thread.
package iostream

// SeekOrigin selects the reference point for Stream.Seek.
type SeekOrigin int

const (
	SeekStart SeekOrigin = iota
	SeekCurrent
	SeekEnd
)

// Stream is a polymorphic handle over file, memory, or caller-supplied
// binary data. Read returns 0 at EOF. Seek past either end of the
// underlying data returns -1 and leaves the position unchanged. Size
// returns -1 when the extent of the stream is not knowable in advance.
type Stream interface {
	Read(p []byte) (n int)
	Seek(offset int64, origin SeekOrigin) int64
	Tell() int64
	Size() int64
	Close()
	IsOpen() bool
}

// WriteStream is implemented by streams that can be written to; the
// decode path only reads.
type WriteStream interface {
	Stream
	Write(p []byte) (n int)
}

// withPosition saves a stream's position, runs fn, and restores the
// position regardless of fn's outcome, honouring the format-sniffing
// contract in spec.md §4.A/§4.C.
func withPosition(s Stream, fn func() bool) bool {
	pos := s.Tell()
	result := fn()
	s.Seek(pos, SeekStart)
	return result
}

// WithPosition is the exported form of withPosition, for callers that
// probe a stream and need its position back afterwards.
func WithPosition(s Stream, fn func() bool) bool {
	return withPosition(s, fn)
}
