package iostream

import (
	"io"
	"log/slog"
	"os"
)

// FileStream is a Stream backed by an *os.File. Mirrors the way the
// teacher opens WAV files directly against *os.File in
// pkg/audiodevice/device/filedevice.go, generalized behind the Stream
// interface instead of being baked into one device.
type FileStream struct {
	f      *os.File
	open   bool
	logger *slog.Logger
}

// FromFile opens path for reading (or read-write when writable is
// true) and returns nil on any failure, per spec.md §4.A: factories
// validate on construction and give callers nothing to misuse.
func FromFile(path string, writable bool) *FileStream {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		slog.Debug("iostream: could not open file", "path", path, "err", err)
		return nil
	}
	return &FileStream{f: f, open: true, logger: slog.Default().With("stream", path)}
}

func (s *FileStream) Read(p []byte) int {
	if !s.open {
		return 0
	}
	n, err := s.f.Read(p)
	if n < 0 {
		return 0
	}
	if err != nil && err != io.EOF && n == 0 {
		return 0
	}
	return n
}

func (s *FileStream) Write(p []byte) int {
	if !s.open {
		return 0
	}
	n, err := s.f.Write(p)
	if err != nil {
		s.logger.Debug("write failed", "err", err)
	}
	return n
}

func (s *FileStream) Seek(offset int64, origin SeekOrigin) int64 {
	if !s.open {
		return -1
	}
	whence := toWhence(origin)
	cur, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	n, err := s.f.Seek(offset, whence)
	if err != nil {
		return -1
	}
	if size := s.Size(); size >= 0 && n > size {
		s.f.Seek(cur, io.SeekStart)
		return -1
	}
	return n
}

func (s *FileStream) Tell() int64 {
	if !s.open {
		return -1
	}
	n, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	return n
}

func (s *FileStream) Size() int64 {
	if !s.open {
		return -1
	}
	info, err := s.f.Stat()
	if err != nil {
		return -1
	}
	return info.Size()
}

func (s *FileStream) Close() {
	if !s.open {
		return
	}
	s.open = false
	s.f.Close()
}

func (s *FileStream) IsOpen() bool {
	return s.open
}

func toWhence(origin SeekOrigin) int {
	switch origin {
	case SeekCurrent:
		return io.SeekCurrent
	case SeekEnd:
		return io.SeekEnd
	default:
		return io.SeekStart
	}
}
