// Package registry holds the priority-ordered set of decoder formats
// the engine can recognise, and performs automatic format detection
// against a seekable stream (spec.md §4.C). Generalizes the switch-
// statement factory dispatch in the teacher's
// pkg/encoderdecoder.NewEncoderDecoder into a dynamically
// registerable, priority-sorted table, per
// _examples/original_source/include/musac/sdk/decoders_registry.hh.
package registry

import (
	"sort"

	"github.com/ijakenorton/musac-go/pkg/decoder"
	"github.com/ijakenorton/musac-go/pkg/iostream"
)

type entry struct {
	name     string
	accept   decoder.AcceptFunc
	factory  decoder.Factory
	priority int
	seq      int // insertion order, for the stable tie-break
}

// Registry is a dynamic, priority-ordered list of decoder entries.
// Registration is not safe for concurrent use (spec.md §4.C: populate
// once at startup); FindDecoder and CanDecode are read-only and safe
// for concurrent callers once registration has finished.
type Registry struct {
	entries []entry
	nextSeq int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a decoder entry and stably re-sorts the registry
// descending by priority. Entries of equal priority are tried in the
// order they were registered (spec.md §4.C's tie-break).
func (r *Registry) Register(name string, accept decoder.AcceptFunc, factory decoder.Factory, priority int) {
	r.entries = append(r.entries, entry{
		name:     name,
		accept:   accept,
		factory:  factory,
		priority: priority,
		seq:      r.nextSeq,
	})
	r.nextSeq++
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority > r.entries[j].priority
	})
}

// FindDecoder tries each registered entry in priority order, restoring
// stream's position before every accept() probe and once more before
// returning. Returns nil if no entry accepts the stream. accept
// implementations that panic are treated as "not accepted" — the
// audio-facing contract in spec.md §7 requires accept() to be total.
func (r *Registry) FindDecoder(stream iostream.Stream) decoder.Decoder {
	originalPos := stream.Tell()
	defer stream.Seek(originalPos, iostream.SeekStart)

	for _, e := range r.entries {
		if r.tryAccept(e, stream) {
			stream.Seek(originalPos, iostream.SeekStart)
			return decoder.NewBase(e.factory())
		}
	}
	return nil
}

// CanDecode is FindDecoder without constructing a decoder.
func (r *Registry) CanDecode(stream iostream.Stream) bool {
	originalPos := stream.Tell()
	defer stream.Seek(originalPos, iostream.SeekStart)

	for _, e := range r.entries {
		if r.tryAccept(e, stream) {
			return true
		}
	}
	return false
}

// tryAccept restores stream's position before calling accept and
// swallows any panic from a misbehaving accept implementation.
func (r *Registry) tryAccept(e entry, stream iostream.Stream) (accepted bool) {
	defer func() {
		if recover() != nil {
			accepted = false
		}
	}()
	pos := stream.Tell()
	defer stream.Seek(pos, iostream.SeekStart)
	return e.accept(stream)
}

// Size returns the number of registered decoders.
func (r *Registry) Size() int {
	return len(r.entries)
}

// Clear removes all registered decoders.
func (r *Registry) Clear() {
	r.entries = nil
	r.nextSeq = 0
}
