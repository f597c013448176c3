//go:build cgo

package registry

import "github.com/ijakenorton/musac-go/pkg/decoder/flac"

func init() {
	registerOptional = func(r *Registry) {
		r.Register("flac", flac.Accept, flac.New, 75)
	}
}
