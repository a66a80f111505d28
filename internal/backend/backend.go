// Package backend picks the native library a process talks to.
package backend

import (
	"github.com/mrz1836/ossl/internal/native"
	"github.com/mrz1836/ossl/internal/native/sim"
)

// New returns the backend for a configured variant name. When the binary
// is linked against libcrypto the linked library always wins and the
// variant is only validated; otherwise a simulated backend of that variant
// is returned.
func New(variant string) (native.Backend, error) {
	v, err := sim.ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		return linked(), nil
	}
	return sim.New(v), nil
}

// Default returns the linked library, or the default simulated variant.
func Default() native.Backend {
	if linked != nil {
		return linked()
	}
	return sim.New(sim.DefaultVariant)
}

// Linked reports whether the binary was built against libcrypto.
func Linked() bool {
	return linked != nil
}
