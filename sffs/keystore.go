package sffs

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// KeyStore is the key-provisioning collaborator from spec.md §6. The
// engine only ever calls Encrypt/Decrypt with the fixed FS content key
// handle, and MacGenerator with the fixed FS MAC key handle; how those
// handles resolve to actual key material is out of scope for the CORE.
type KeyStore interface {
	// Encrypt/Decrypt transform len(in) bytes of in into out using the
	// key named by handle, AES-128-CBC, starting from iv. pid
	// identifies the calling process for the real hardware's
	// access-control checks; the CORE just forwards it.
	Encrypt(handle KeyHandle, iv *[16]byte, in, out []byte, pid uint32) error
	Decrypt(handle KeyHandle, iv *[16]byte, in, out []byte, pid uint32) error

	// MacGenerator returns a fresh BlockMacGenerator bound to the fixed
	// HMAC key (spec.md §4.3's "fixed key").
	MacGenerator() BlockMacGenerator
}

// PID is the (emulated) process ID the engine presents to the key
// store on its own behalf. Guest PIDs are not modeled here -- they
// belong to the out-of-scope IPC dispatcher.
const PID = 0x0f

// StaticKeyStore is an in-memory KeyStore over fixed AES/HMAC keys. It
// stands in for the hardware-backed key store (IOSC on real silicon)
// that spec.md §1 explicitly excludes the derivation of; it is useful
// for tests, tools, and any embedder that already has the two raw keys
// in hand (e.g. because they were extracted from a real console or a
// previous emulator's key file).
type StaticKeyStore struct {
	aesKey [16]byte
	macKey []byte
	block  cipher.Block
}

// NewStaticKeyStore builds a KeyStore from a 16-byte AES-128 content
// key and an HMAC key of arbitrary length.
func NewStaticKeyStore(aesKey [16]byte, macKey []byte) (*StaticKeyStore, error) {
	block, err := aes.NewCipher(aesKey[:])
	if err != nil {
		return nil, fmt.Errorf("sffs: building content cipher: %w", err)
	}
	mac := make([]byte, len(macKey))
	copy(mac, macKey)
	return &StaticKeyStore{aesKey: aesKey, macKey: mac, block: block}, nil
}

func (k *StaticKeyStore) Encrypt(handle KeyHandle, iv *[16]byte, in, out []byte, pid uint32) error {
	if handle != HandleFSKey {
		return fmt.Errorf("sffs: key store: unsupported handle for Encrypt")
	}
	if len(in) != len(out) || len(in)%aes.BlockSize != 0 {
		return fmt.Errorf("sffs: key store: bad buffer length %d", len(in))
	}
	cipher.NewCBCEncrypter(k.block, iv[:]).CryptBlocks(out, in)
	return nil
}

func (k *StaticKeyStore) Decrypt(handle KeyHandle, iv *[16]byte, in, out []byte, pid uint32) error {
	if handle != HandleFSKey {
		return fmt.Errorf("sffs: key store: unsupported handle for Decrypt")
	}
	if len(in) != len(out) || len(in)%aes.BlockSize != 0 {
		return fmt.Errorf("sffs: key store: bad buffer length %d", len(in))
	}
	cipher.NewCBCDecrypter(k.block, iv[:]).CryptBlocks(out, in)
	return nil
}

func (k *StaticKeyStore) MacGenerator() BlockMacGenerator {
	return newHMACMacGenerator(k.macKey)
}
