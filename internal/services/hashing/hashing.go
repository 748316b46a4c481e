package hashing

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// blockSize bounds memory when hashing arbitrarily large files
const blockSize = 64 * 1024

// Digests holds the content fingerprints of one byte stream. SHA256 is the
// primary dedup key; MD5 is kept for legacy compatibility.
type Digests struct {
	SHA256 string
	MD5    string
}

// FileDigests streams the file at path through SHA-256 and MD5 in fixed-size
// blocks. The file is never loaded into memory whole.
func FileDigests(path string) (Digests, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digests{}, fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	return ReaderDigests(f)
}

// ReaderDigests hashes an arbitrary byte stream
func ReaderDigests(r io.Reader) (Digests, error) {
	sha := sha256.New()
	md := md5.New()

	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(io.MultiWriter(sha, md), r, buf); err != nil {
		return Digests{}, fmt.Errorf("failed to hash stream: %w", err)
	}

	return Digests{
		SHA256: hex.EncodeToString(sha.Sum(nil)),
		MD5:    hex.EncodeToString(md.Sum(nil)),
	}, nil
}

// BytesDigests hashes an in-memory byte slice
func BytesDigests(data []byte) Digests {
	sha := sha256.Sum256(data)
	md := md5.Sum(data)
	return Digests{
		SHA256: hex.EncodeToString(sha[:]),
		MD5:    hex.EncodeToString(md[:]),
	}
}

// TextDigest returns the SHA-256 of the UTF-8 bytes of text
func TextDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
