package iostream

// MemoryStream is a Stream backed by an in-memory byte slice, used for
// caller-supplied buffers and for the temp-file-free decode tests in
// this module.
type MemoryStream struct {
	buf      []byte
	pos      int64
	open     bool
	writable bool
}

// FromMemory wraps buf as a Stream. When writable is true, Write
// extends buf as needed; otherwise Write is a no-op returning 0.
func FromMemory(buf []byte, writable bool) *MemoryStream {
	if buf == nil {
		buf = []byte{}
	}
	return &MemoryStream{buf: buf, open: true, writable: writable}
}

func (s *MemoryStream) Read(p []byte) int {
	if !s.open || s.pos >= int64(len(s.buf)) {
		return 0
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += int64(n)
	return n
}

func (s *MemoryStream) Write(p []byte) int {
	if !s.open || !s.writable {
		return 0
	}
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[s.pos:end], p)
	s.pos += int64(n)
	return n
}

func (s *MemoryStream) Seek(offset int64, origin SeekOrigin) int64 {
	if !s.open {
		return -1
	}
	var target int64
	switch origin {
	case SeekCurrent:
		target = s.pos + offset
	case SeekEnd:
		target = int64(len(s.buf)) + offset
	default:
		target = offset
	}
	if target < 0 || target > int64(len(s.buf)) {
		return -1
	}
	s.pos = target
	return s.pos
}

func (s *MemoryStream) Tell() int64 {
	if !s.open {
		return -1
	}
	return s.pos
}

func (s *MemoryStream) Size() int64 {
	if !s.open {
		return -1
	}
	return int64(len(s.buf))
}

func (s *MemoryStream) Close() {
	s.open = false
}

func (s *MemoryStream) IsOpen() bool {
	return s.open
}

// Bytes returns the current backing slice. Useful for tests that write
// through a MemoryStream and then want to inspect the result.
func (s *MemoryStream) Bytes() []byte {
	return s.buf
}
