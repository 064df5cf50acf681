package fingerprint

import (
	"encoding/hex"
	"fmt"
)

const (
	// KeySize for the blake2b algo
	KeySize = 64

	// KeySizeHex for the hex representation of a key
	KeySizeHex = 2 * KeySize
)

// Key is the fixed-size content fingerprint. Its hex encoding is used
// both as the blob store key and as the dedup identity in the catalog.
type Key [KeySize]byte

// NewKey creates a new key from data
func NewKey(data []byte) (Key, error) {
	var k Key
	n := copy(k[:], data)
	if n != KeySize {
		return Key{}, &BadKeySize{Key: data}
	}
	return k, nil
}

// MustNewKey creates a new key from data but panics if there is an error
func MustNewKey(data []byte) Key {
	k, e := NewKey(data)
	if e != nil {
		panic(e.Error())
	}
	return k
}

// KeyFromString decodes a key from its hex representation
func KeyFromString(s string) (Key, error) {
	if len(s) != KeySizeHex {
		return Key{}, fmt.Errorf("%q has invalid hex length %d, expected %d", s, len(s), KeySizeHex)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, err
	}
	return NewKey(b)
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// BadKeySize is an error that's returned when the key to create has an invalid size.
type BadKeySize struct {
	Key []byte
}

func (b *BadKeySize) Error() string {
	return fmt.Sprintf("%x has invalid size of %d, expected %d", b.Key, len(b.Key), KeySize)
}
