// Package sealer serializes, hashes and asymmetrically encrypts payloads for
// confidential storage. A 2048-bit RSA-OAEP key can encrypt at most 190 bytes
// with SHA-256 padding, so payloads are encrypted in fixed 190-byte chunks;
// decryption reverses the same chunking to reconstruct the original stream.
package sealer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"netintel/internal/platform/errors"
)

// maxChunkSize is keySize/8 - 2*sha256.Size - 2, the OAEP plaintext capacity
// of a 2048-bit key.
const maxChunkSize = 190

// RSASealer implements ports.Sealer over a process-wide key pair.
type RSASealer struct {
	keys *KeyPair
}

// New creates a sealer bound to the given key pair.
// Undersized keys are rejected at construction: a key that cannot hold one
// chunk is a configuration error, not a per-request condition.
func New(keys *KeyPair) (*RSASealer, error) {
	if keys == nil || keys.public == nil {
		return nil, errors.New("sealer requires a key pair")
	}
	if capacity := keys.public.Size() - 2*sha256.Size - 2; capacity < maxChunkSize {
		return nil, errors.Errorf("RSA key too small: OAEP capacity %d < chunk size %d", capacity, maxChunkSize)
	}
	return &RSASealer{keys: keys}, nil
}

// Digest returns the hex SHA-256 of the canonical JSON serialization of the
// payload. Canonical means object keys sorted lexicographically at every
// nesting level, so the digest is a pure function of payload content,
// independent of field insertion order.
func (s *RSASealer) Digest(payload any) (string, error) {
	canonical, err := canonicalJSON(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to canonicalize payload")
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Seal serializes the payload as JSON, splits the byte stream into fixed-size
// chunks and encrypts each chunk independently with RSA-OAEP (MGF1/SHA-256).
// Chunk order is preserved; each ciphertext is base64-encoded.
func (s *RSASealer) Seal(payload any) ([]string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize payload")
	}

	chunks := make([]string, 0, (len(data)+maxChunkSize-1)/maxChunkSize)
	for off := 0; off < len(data); off += maxChunkSize {
		end := off + maxChunkSize
		if end > len(data) {
			end = len(data)
		}

		ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, s.keys.public, data[off:end], nil)
		if err != nil {
			// Impossible for in-range chunks with a validated key; treat as fatal.
			return nil, errors.Wrap(err, "OAEP encryption rejected chunk")
		}

		chunks = append(chunks, base64.StdEncoding.EncodeToString(ciphertext))
	}

	return chunks, nil
}

// canonicalJSON re-marshals the payload through an untyped value so that
// encoding/json emits map keys in sorted order at every level.
func canonicalJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return json.Marshal(v)
}
