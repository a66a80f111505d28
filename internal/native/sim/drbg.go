package sim

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// rekeyAfter bounds how much output one key produces.
const rekeyAfter = 1 << 30

// drbg is a ChaCha20 keystream generator keyed from an entropy source.
type drbg struct {
	mu      sync.Mutex
	entropy io.Reader
	cipher  *chacha20.Cipher
	out     int
}

func (d *drbg) rekey() error {
	seed := make([]byte, chacha20.KeySize+chacha20.NonceSize)
	defer wipe(seed)

	if _, err := io.ReadFull(d.entropy, seed); err != nil {
		return fmt.Errorf("reading entropy: %w", err)
	}
	c, err := chacha20.NewUnauthenticatedCipher(seed[:chacha20.KeySize], seed[chacha20.KeySize:])
	if err != nil {
		return fmt.Errorf("keying generator: %w", err)
	}
	d.cipher = c
	d.out = 0
	return nil
}

func (d *drbg) read(buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cipher == nil || d.out+len(buf) > rekeyAfter {
		if err := d.rekey(); err != nil {
			return err
		}
	}
	clear(buf)
	d.cipher.XORKeyStream(buf, buf)
	d.out += len(buf)
	return nil
}
