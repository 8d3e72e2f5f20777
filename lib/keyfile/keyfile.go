// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package keyfile

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"

	"github.com/jwgale/sanctum-go/lib/secret"
)

// Encrypted key file format parameters. These match the daemon's keygen
// tooling: changing any of them breaks existing key files.
const (
	saltSize         = 16
	nonceSize        = 24
	derivedKeySize   = 32
	pbkdf2Iterations = 100_000
)

// DefaultDir returns the default key directory, ~/.sanctum/keys.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".sanctum", "keys"), nil
}

// Load reads a plaintext key file: a hex-encoded 32-byte Ed25519 seed,
// optionally followed by trailing whitespace.
func Load(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding key file %s: %w", path, err)
	}
	return keyFromSeed(path, seed)
}

// LoadEncrypted reads a passphrase-protected key file. The file is a
// hex-encoded blob of salt, nonce, and secretbox ciphertext; the box key
// is derived from the passphrase with PBKDF2-HMAC-SHA256.
func LoadEncrypted(path, passphrase string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	blob, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding key file %s: %w", path, err)
	}
	if len(blob) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("key file %s is too short to be an encrypted key (%d bytes)", path, len(blob))
	}

	salt := blob[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], blob[saltSize:saltSize+nonceSize])

	var key [derivedKeySize]byte
	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, derivedKeySize, sha256.New)
	copy(key[:], derived)
	secret.Zero(derived)
	defer secret.Zero(key[:])

	seed, ok := secretbox.Open(nil, blob[saltSize+nonceSize:], &nonce, &key)
	if !ok {
		return nil, fmt.Errorf("decrypting key file %s: wrong passphrase or corrupted file", path)
	}
	return keyFromSeed(path, seed)
}

// Resolve locates and loads an agent's signing key. Precedence follows
// the daemon's layout: an explicit path wins outright; otherwise the
// encrypted file <dir>/<agent>.key.enc is used when it exists and a
// passphrase was supplied; otherwise the plaintext file <dir>/<agent>.key.
func Resolve(explicitPath, dir, agentName, passphrase string) (ed25519.PrivateKey, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	encryptedPath := filepath.Join(dir, agentName+".key.enc")
	if passphrase != "" {
		if _, err := os.Stat(encryptedPath); err == nil {
			return LoadEncrypted(encryptedPath, passphrase)
		}
	}
	return Load(filepath.Join(dir, agentName+".key"))
}

// Generate creates a new Ed25519 key and writes its seed as a plaintext
// key file with 0600 permissions, creating parent directories as needed.
// Returns the public key for registration with the vault daemon.
func Generate(path string) (ed25519.PublicKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	seed := private.Seed()
	encoded := hex.EncodeToString(seed)
	secret.Zero(seed)

	if err := writeKeyFile(path, encoded); err != nil {
		return nil, err
	}
	return public, nil
}

// GenerateEncrypted creates a new Ed25519 key and writes its seed as a
// passphrase-protected key file with 0600 permissions. Returns the
// public key for registration with the vault daemon.
func GenerateEncrypted(path, passphrase string) (ed25519.PublicKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	seed := private.Seed()
	defer secret.Zero(seed)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	var key [derivedKeySize]byte
	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, derivedKeySize, sha256.New)
	copy(key[:], derived)
	secret.Zero(derived)
	defer secret.Zero(key[:])

	blob := make([]byte, 0, saltSize+nonceSize+len(seed)+secretbox.Overhead)
	blob = append(blob, salt...)
	blob = append(blob, nonce[:]...)
	blob = secretbox.Seal(blob, seed, &nonce, &key)

	if err := writeKeyFile(path, hex.EncodeToString(blob)); err != nil {
		return nil, err
	}
	return public, nil
}

// keyFromSeed validates the seed length and builds the private key. The
// seed travels through a secret.Buffer so the intermediate copy is
// mlocked and zeroed once the key exists.
func keyFromSeed(path string, seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		secret.Zero(seed)
		return nil, fmt.Errorf("key file %s has a %d-byte seed, expected %d", path, len(seed), ed25519.SeedSize)
	}

	buffer, err := secret.NewFromBytes(seed)
	if err != nil {
		return nil, err
	}
	defer buffer.Close()

	return ed25519.NewKeyFromSeed(buffer.Bytes()), nil
}

func writeKeyFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents+"\n"), 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}
