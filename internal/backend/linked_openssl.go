//go:build cgo && openssl

package backend

import (
	"github.com/mrz1836/ossl/internal/native"
	"github.com/mrz1836/ossl/internal/native/openssl"
)

//nolint:gochecknoglobals // build-time backend selection
var linked = func() native.Backend {
	return openssl.New()
}
