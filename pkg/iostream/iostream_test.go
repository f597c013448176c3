package iostream

import "testing"

func TestMemoryStreamReadWrite(t *testing.T) {
	s := FromMemory([]byte{1, 2, 3, 4}, true)
	buf := make([]byte, 2)
	if n := s.Read(buf); n != 2 || buf[0] != 1 || buf[1] != 2 {
		t.Fatalf("unexpected read: n=%d buf=%v", n, buf)
	}
	if got := s.Tell(); got != 2 {
		t.Fatalf("Tell() = %d, want 2", got)
	}
	if n := s.Write([]byte{9, 9}); n != 2 {
		t.Fatalf("Write() = %d, want 2", n)
	}
	if got := s.Bytes()[2]; got != 9 {
		t.Fatalf("write did not land at cursor, got %v", s.Bytes())
	}
}

func TestMemoryStreamSeekBounds(t *testing.T) {
	s := FromMemory([]byte{1, 2, 3}, false)
	if got := s.Seek(100, SeekStart); got != -1 {
		t.Fatalf("Seek past end = %d, want -1", got)
	}
	if got := s.Seek(-1, SeekStart); got != -1 {
		t.Fatalf("Seek before start = %d, want -1", got)
	}
	if got := s.Seek(1, SeekStart); got != 1 {
		t.Fatalf("Seek(1) = %d, want 1", got)
	}
}

func TestMemoryStreamEOF(t *testing.T) {
	s := FromMemory([]byte{1}, false)
	buf := make([]byte, 4)
	s.Read(buf)
	if n := s.Read(buf); n != 0 {
		t.Fatalf("Read at EOF = %d, want 0", n)
	}
}

func TestWithPositionRestoresOnFailureAndSuccess(t *testing.T) {
	s := FromMemory([]byte{1, 2, 3, 4, 5}, false)
	s.Seek(2, SeekStart)

	WithPosition(s, func() bool {
		s.Seek(4, SeekStart)
		return false
	})
	if got := s.Tell(); got != 2 {
		t.Fatalf("position not restored after false: got %d", got)
	}

	WithPosition(s, func() bool {
		s.Seek(0, SeekStart)
		return true
	})
	if got := s.Tell(); got != 2 {
		t.Fatalf("position not restored after true: got %d", got)
	}
}

func TestFromFileMissingReturnsNil(t *testing.T) {
	if s := FromFile("/nonexistent/path/does/not/exist.bin", false); s != nil {
		t.Fatalf("FromFile on missing path should return nil, got %v", s)
	}
}
