package object

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"

	"github.com/pjbgf/sha1cd"
	"golang.org/x/crypto/blake2b"
)

// ErrUnknownHashAlgorithm is returned when a configured algorithm name is
// not supported.
var ErrUnknownHashAlgorithm = errors.New("unknown hash algorithm")

// HashAlgorithm names the function used to address objects. Every
// supported algorithm produces HashSize bytes so digests keep their
// 40-hex shape.
type HashAlgorithm string

const (
	// HashSHA1 is collision-detecting SHA-1.
	HashSHA1 HashAlgorithm = "sha1"
	// HashBLAKE2b is BLAKE2b truncated to a 160-bit output.
	HashBLAKE2b HashAlgorithm = "blake2b"
)

// DefaultHashAlgorithm is used by HashObject and by stores created
// without WithHashAlgorithm.
const DefaultHashAlgorithm = HashSHA1

// ParseHashAlgorithm maps a config string onto a HashAlgorithm. The empty
// string selects the default.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch HashAlgorithm(s) {
	case "":
		return DefaultHashAlgorithm, nil
	case HashSHA1, HashBLAKE2b:
		return HashAlgorithm(s), nil
	default:
		return "", fmt.Errorf("parse hash algorithm %q: %w", s, ErrUnknownHashAlgorithm)
	}
}

func (a HashAlgorithm) newHash() hash.Hash {
	switch a {
	case HashBLAKE2b:
		h, err := blake2b.New(HashSize, nil)
		if err != nil {
			// Only reachable with an invalid size or key.
			panic(fmt.Sprintf("blake2b.New(%d): %v", HashSize, err))
		}
		return h
	default:
		return sha1cd.New()
	}
}

// Sum computes the digest of data with no envelope.
func (a HashAlgorithm) Sum(data []byte) Hash {
	h := a.newHash()
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// SumObject computes the digest of the envelope "type len\0content".
// The type is part of the hashed input, so equal payloads of different
// types never share a digest.
func (a HashAlgorithm) SumObject(objType ObjectType, data []byte) Hash {
	h := a.newHash()
	h.Write(envelopeHeader(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// HashBytes hashes data with the default algorithm.
func HashBytes(data []byte) Hash {
	return DefaultHashAlgorithm.Sum(data)
}

// HashObject computes the digest of objType and data with the default
// algorithm, mirroring Git's object hashing.
func HashObject(objType ObjectType, data []byte) Hash {
	return DefaultHashAlgorithm.SumObject(objType, data)
}

func envelopeHeader(objType ObjectType, n int) []byte {
	header := make([]byte, 0, len(objType)+24)
	header = append(header, objType...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(n), 10)
	return append(header, 0)
}

// hashToRaw decodes a well-formed digest into its raw bytes.
func hashToRaw(h Hash) ([HashSize]byte, error) {
	var raw [HashSize]byte
	if !IsValidHash(string(h)) {
		return raw, fmt.Errorf("malformed hash %q", h)
	}
	if _, err := hex.Decode(raw[:], []byte(h)); err != nil {
		return raw, fmt.Errorf("decode hash %q: %w", h, err)
	}
	return raw, nil
}
