package playback

import (
	"testing"
	"time"

	"github.com/ijakenorton/musac-go/pkg/audiosource"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

type stubDecoder struct {
	rewound int
}

func (s *stubDecoder) IsOpen() bool                 { return true }
func (s *stubDecoder) Open(iostream.Stream) error   { return nil }
func (s *stubDecoder) Channels() audiospec.Channels { return audiospec.Stereo }
func (s *stubDecoder) Rate() audiospec.Rate         { return 44100 }
func (s *stubDecoder) Duration() time.Duration      { return time.Second }
func (s *stubDecoder) Rewind() bool                 { s.rewound++; return true }
func (s *stubDecoder) SeekToTime(time.Duration) bool { return true }
func (s *stubDecoder) Decode(buf []float32, callAgain *bool, deviceChannels audiospec.Channels) int {
	*callAgain = false
	return 0
}

func newTestStream() *Stream {
	dec := &stubDecoder{}
	src := audiosource.NewWithDecoder(dec, iostream.FromMemory(nil, false))
	return New(src)
}

func TestPlayTransitionsIdleToPlaying(t *testing.T) {
	s := newTestStream()
	s.Play()
	if s.State() != StatePlaying {
		t.Fatalf("expected playing, got %v", s.State())
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	s := newTestStream()
	s.Play()
	s.Pause()
	if s.State() != StatePaused {
		t.Fatalf("expected paused, got %v", s.State())
	}
	s.Resume()
	if s.State() != StatePlaying {
		t.Fatalf("expected playing after resume, got %v", s.State())
	}
}

// TestStopInvokesFinishExactlyOnce is spec.md §8 scenario S6 and the
// finish-callback guarantee in §4.G.
func TestStopInvokesFinishExactlyOnce(t *testing.T) {
	s := newTestStream()
	calls := 0
	s.SetFinishFunc(func(*Stream) { calls++ })
	s.Play()
	s.Stop()
	s.InvokeFinish()
	s.InvokeFinish()
	s.InvokeFinish()
	if calls != 1 {
		t.Fatalf("expected finish callback invoked exactly once, got %d", calls)
	}
	if s.State() != StateFinished {
		t.Fatalf("expected finished state, got %v", s.State())
	}
}

func TestFadeOutGainDecreasesLinearly(t *testing.T) {
	s := newTestStream()
	s.Play()
	s.StopWithFadeOut(100 * time.Millisecond)
	if s.State() != StateStopping {
		t.Fatalf("expected stopping, got %v", s.State())
	}

	_, g0 := s.Gains()
	_ = g0
	l0, _ := s.Gains()
	if l0 < 0.49 {
		t.Fatalf("expected full envelope gain at fade start (0.5 per channel at centre pan), got %f", l0)
	}

	finished := s.AdvanceFade(50 * time.Millisecond)
	if finished {
		t.Fatal("fade should not be complete halfway through")
	}
	lHalf, _ := s.Gains()
	if lHalf >= l0 {
		t.Fatalf("expected gain to have decreased, start=%f half=%f", l0, lHalf)
	}

	finished = s.AdvanceFade(60 * time.Millisecond)
	if !finished {
		t.Fatal("expected fade-out completion to report finished")
	}
	if s.State() != StateFinished {
		t.Fatalf("expected state finished after fade-out completes, got %v", s.State())
	}
}

func TestFadeInGainIncreasesLinearly(t *testing.T) {
	s := newTestStream()
	s.PlayWithFadeIn(100 * time.Millisecond)
	l0, _ := s.Gains()
	if l0 > 0.01 {
		t.Fatalf("expected near-zero gain at fade-in start, got %f", l0)
	}
	s.AdvanceFade(100 * time.Millisecond)
	l1, _ := s.Gains()
	if l1 < 0.49 {
		t.Fatalf("expected full envelope gain once fade-in completes (0.5 per channel at centre pan), got %f", l1)
	}
}

// TestPanLawConstantGain checks spec.md §4.G's constant-gain pan
// formula at a few representative positions.
func TestPanLawConstantGain(t *testing.T) {
	s := newTestStream()
	s.Play()

	s.Pan = 0
	l, r := s.Gains()
	if l != 0.5 || r != 0.5 {
		t.Fatalf("expected center pan to give 0.5/0.5, got %f/%f", l, r)
	}

	s.Pan = 1
	l, r = s.Gains()
	if l != 0 || r != 1 {
		t.Fatalf("expected hard right pan to give 0/1, got %f/%f", l, r)
	}

	s.Pan = -1
	l, r = s.Gains()
	if l != 1 || r != 0 {
		t.Fatalf("expected hard left pan to give 1/0, got %f/%f", l, r)
	}
}

// TestLoopFiniteReplaysBeforeFinishing is spec.md §8 scenario S5.
func TestLoopFiniteReplaysBeforeFinishing(t *testing.T) {
	dec := &stubDecoder{}
	src := audiosource.NewWithDecoder(dec, iostream.FromMemory(nil, false))
	s := New(src)
	s.SetLoopPolicy(Finite(2))
	s.Play()

	for i := 0; i < 2; i++ {
		if finished := s.HandleEOS(); finished {
			t.Fatalf("expected loop iteration %d to rewind, not finish", i)
		}
	}
	if dec.rewound != 2 {
		t.Fatalf("expected decoder rewound twice, got %d", dec.rewound)
	}
	if finished := s.HandleEOS(); !finished {
		t.Fatal("expected stream to finish after loop count exhausted")
	}
}

func TestLoopInfiniteNeverFinishes(t *testing.T) {
	dec := &stubDecoder{}
	src := audiosource.NewWithDecoder(dec, iostream.FromMemory(nil, false))
	s := New(src)
	s.SetLoopPolicy(Infinite())
	s.Play()

	for i := 0; i < 50; i++ {
		if finished := s.HandleEOS(); finished {
			t.Fatalf("expected infinite loop to never finish, failed at iteration %d", i)
		}
	}
}

func TestActiveSkipsPausedAndMuted(t *testing.T) {
	s := newTestStream()
	s.Play()
	if !s.Active() {
		t.Fatal("expected playing unmuted stream to be active")
	}
	s.Pause()
	if s.Active() {
		t.Fatal("expected paused stream to be inactive")
	}
	s.Resume()
	s.Muted = true
	if s.Active() {
		t.Fatal("expected muted stream to be inactive")
	}
}

func TestRewindResetsCursor(t *testing.T) {
	s := newTestStream()
	s.Play()
	s.AdvanceCursor(1000)
	if s.FrameCursor() != 1000 {
		t.Fatalf("expected cursor 1000, got %d", s.FrameCursor())
	}
	s.Rewind()
	if s.FrameCursor() != 0 {
		t.Fatalf("expected cursor reset to 0 after rewind, got %d", s.FrameCursor())
	}
}
