package registry

import (
	"github.com/ijakenorton/musac-go/pkg/decoder/aac"
	"github.com/ijakenorton/musac-go/pkg/decoder/aiff"
	"github.com/ijakenorton/musac-go/pkg/decoder/midifamily"
	"github.com/ijakenorton/musac-go/pkg/decoder/mml"
	"github.com/ijakenorton/musac-go/pkg/decoder/mod"
	"github.com/ijakenorton/musac-go/pkg/decoder/mp3"
	"github.com/ijakenorton/musac-go/pkg/decoder/svx8"
	"github.com/ijakenorton/musac-go/pkg/decoder/voc"
	"github.com/ijakenorton/musac-go/pkg/decoder/vorbis"
	"github.com/ijakenorton/musac-go/pkg/decoder/wav"
)

// registerOptional adds decoders whose dependencies aren't always
// buildable (cgo-gated libraries without their C sources vendored).
// The cgo build registers the real one in defaults_cgo.go; otherwise
// this is a no-op.
var registerOptional = func(r *Registry) {}

// RegisterDefaults registers every bundled decoder at the priorities
// spec.md §4.C recommends: common/popular formats 80-100, less common
// lossless formats 50-70, tracker/MIDI families 30-50, and MML last
// at 10 since it is pure text and easiest to false-positive against.
func RegisterDefaults(r *Registry) {
	r.Register("wav", wav.Accept, wav.New, 100)
	r.Register("mp3", mp3.Accept, mp3.New, 95)
	r.Register("aiff", aiff.Accept, aiff.New, 90)
	r.Register("vorbis", vorbis.Accept, vorbis.New, 85)
	r.Register("aac", aac.Accept, aac.New, 80)
	r.Register("voc", voc.Accept, voc.New, 60)
	r.Register("svx8", svx8.Accept, svx8.New, 55)
	r.Register("mod", mod.Accept, mod.New, 40)
	r.Register("midifamily", midifamily.Accept, midifamily.New, 35)
	registerOptional(r)
	r.Register("mml", mml.Accept, mml.New, 10)
}
