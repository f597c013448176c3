// Package midifamily recognises the General-MIDI-adjacent formats
// spec.md §6 groups together (MIDI, MUS, XMI, HMP, HMI, CMF, OPB, VGM).
// The spec describes these as "rendered via an internal OPL MIDI
// synthesiser with bundled patches" — spec.md §9 notes that bundled
// patch set (GENMIDI.wopl-format) is itself part of the decoder, not
// the core, and nothing in the example pack carries an OPL synthesiser
// or a patch bank to ground one on. This package implements the part
// that is groundable: recognising each container format by its magic
// bytes, parsing a standard MIDI file's division field for a tempo
// hint, and reporting silence from DoDecode rather than fabricating an
// FM-synthesis engine. See DESIGN.md for the tracked follow-up.
package midifamily

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ijakenorton/musac-go/internal/muserr"
	"github.com/ijakenorton/musac-go/pkg/audiospec"
	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

// Family identifies which container format a stream was recognised as.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMIDI
	FamilyMUS
	FamilyXMI
	FamilyHMP
	FamilyHMI
	FamilyCMF
	FamilyOPB
	FamilyVGM
)

// The 4-byte tag "OPBI" that detect matches sits at the start of an OPL
// Bank-format file, the container DMX's OPL patch dumps (and later OPB
// players) use ahead of the bank-data payload.

var errUnrecognised = errors.New("midifamily: stream does not match any known MIDI-family magic")

// Decoder implements decoder.Concrete for the MIDI-adjacent family.
type Decoder struct {
	family       Family
	ticksPerBeat int
}

// New is a decoder.Factory for midifamily.Decoder.
func New() decoder.Concrete { return &Decoder{} }

// Accept recognises the family's container magics (spec.md §4.C).
func Accept(stream iostream.Stream) bool {
	_, ok := detect(stream)
	return ok
}

func detect(stream iostream.Stream) (Family, bool) {
	header := make([]byte, 16)
	n := stream.Read(header)

	switch {
	case n >= 4 && string(header[0:4]) == "MThd":
		return FamilyMIDI, true
	case n >= 4 && string(header[0:4]) == "MUS\x1a":
		return FamilyMUS, true
	case n >= 12 && string(header[0:4]) == "FORM" && (string(header[8:12]) == "XDIR" || string(header[8:12]) == "XMID"):
		return FamilyXMI, true
	case n >= 8 && string(header[0:8]) == "HMIMIDIP":
		return FamilyHMP, true
	case n >= 8 && string(header[0:8]) == "HMI-MIDI":
		return FamilyHMI, true
	case n >= 4 && string(header[0:4]) == "CTMF":
		return FamilyCMF, true
	case n >= 4 && string(header[0:4]) == "OPBI":
		return FamilyOPB, true
	case n >= 4 && string(header[0:4]) == "Vgm ":
		return FamilyVGM, true
	}
	return FamilyUnknown, false
}

func (d *Decoder) Open(stream iostream.Stream) error {
	start := stream.Tell()
	family, ok := detect(stream)
	if !ok {
		return muserr.New(muserr.KindDecoder, "midifamily.open", errUnrecognised)
	}
	d.family = family
	d.ticksPerBeat = 0

	if family == FamilyMIDI {
		// detect read past the header; rewind to just after "MThd".
		stream.Seek(start+4, iostream.SeekStart)
		var rest [10]byte
		if n := stream.Read(rest[:]); n == 10 {
			division := binary.BigEndian.Uint16(rest[8:10])
			if division&0x8000 == 0 {
				d.ticksPerBeat = int(division)
			}
		}
	}
	return nil
}

// Family reports which container format Open recognised.
func (d *Decoder) Family() Family { return d.family }

func (d *Decoder) Channels() audiospec.Channels { return audiospec.Stereo }
func (d *Decoder) Rate() audiospec.Rate { return 44100 }

// Duration is unknown without sequencing every track against its
// tempo-map; this decoder does not implement MIDI sequencing or OPL
// synthesis (see the package doc comment), so it reports zero.
func (d *Decoder) Duration() time.Duration { return 0 }

func (d *Decoder) Rewind() bool { return true }

func (d *Decoder) SeekToTime(pos time.Duration) bool { return false }

// DoDecode reports silence indefinitely, for the same reason Duration
// reports zero: no OPL synthesiser is wired up here.
func (d *Decoder) DoDecode(buf []float32, callAgain *bool) int {
	for i := range buf {
		buf[i] = 0
	}
	*callAgain = false
	return len(buf)
}
