// Package osslrand fills buffers from the backend's cryptographically
// secure generator.
package osslrand

import (
	"errors"
	"fmt"
	"io"

	"github.com/mrz1836/ossl/internal/native"
	"github.com/mrz1836/ossl/pkg/osslerr"
)

// Observer is told about every fill request.
type Observer interface {
	ObserveRand(n int, err error)
}

// Option configures a Source.
type Option func(*Source)

// WithObserver reports each Bytes call to o.
func WithObserver(o Observer) Option {
	return func(s *Source) {
		s.observer = o
	}
}

// Source draws random bytes through one binding.
type Source struct {
	b        *osslerr.Binding
	observer Observer
}

// New returns a Source over b.
func New(b *osslerr.Binding, opts ...Option) *Source {
	s := &Source{b: b}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bytes fills buf from the default binding's generator.
func Bytes(buf []byte) error {
	return New(osslerr.Default()).Bytes(buf)
}

// KeepRandomDevicesOpen toggles entropy device retention on the default
// binding's backend.
func KeepRandomDevicesOpen(keep bool) error {
	return New(osslerr.Default()).KeepRandomDevicesOpen(keep)
}

// Reader is an io.Reader over the default binding's generator.
//
//nolint:gochecknoglobals // mirrors crypto/rand.Reader
var Reader io.Reader = reader{}

type reader struct{}

func (reader) Read(p []byte) (int, error) {
	return New(osslerr.Default()).Read(p)
}

// MaxLen returns the largest buffer a single Bytes call accepts.
func (s *Source) MaxLen() int {
	return s.b.Info().Caps.RandLimit()
}

// Bytes fills buf entirely with random bytes. It panics when buf is longer
// than MaxLen, and returns the drained *osslerr.ErrorStack when the
// backend reports failure.
func (s *Source) Bytes(buf []byte) error {
	caps := s.b.Info().Caps
	if limit := caps.RandLimit(); len(buf) > limit {
		panic(fmt.Sprintf("osslrand: request of %d bytes exceeds the backend limit of %d", len(buf), limit))
	}

	be := s.b.Backend()
	err := s.b.Run(func() bool {
		return !caps.RandConvention.Failed(be.RandBytes(buf))
	})
	if s.observer != nil {
		s.observer.ObserveRand(len(buf), err)
	}
	return err
}

// Read implements io.Reader. Requests larger than MaxLen are served in
// several calls. Like Bytes, it panics when the backend accepts no bytes
// at all.
func (s *Source) Read(p []byte) (int, error) {
	limit := s.MaxLen()
	if limit <= 0 && len(p) > 0 {
		panic(fmt.Sprintf("osslrand: backend limit of %d bytes cannot serve a read", limit))
	}
	n := 0
	for n < len(p) {
		end := len(p)
		if end-n > limit {
			end = n + limit
		}
		if err := s.Bytes(p[n:end]); err != nil {
			return n, err
		}
		n = end
	}
	return n, nil
}

// KeepRandomDevicesOpen asks the backend to keep or release its entropy
// device handles. It returns errors.ErrUnsupported when the backend
// cannot.
func (s *Source) KeepRandomDevicesOpen(keep bool) error {
	be := s.b.Backend()
	k, ok := be.(native.RandDeviceKeeper)
	if !ok || !s.b.Info().Caps.KeepRandomDevices {
		return fmt.Errorf("keep random devices open on %s: %w", s.b.Info().Name, errors.ErrUnsupported)
	}
	be.Init()
	k.KeepRandomDevicesOpen(keep)
	return nil
}
