//go:build cgo && openssl && go1.24

package openssl

// RAND_bytes only reads and writes the buffer it is given.

// #cgo noescape RAND_bytes
// #cgo nocallback RAND_bytes
import "C"
