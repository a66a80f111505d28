//go:build !(cgo && openssl)

package backend

import "github.com/mrz1836/ossl/internal/native"

//nolint:gochecknoglobals // build-time backend selection
var linked func() native.Backend
