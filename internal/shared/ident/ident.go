package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FingerprintLength is the number of hex characters kept from the full
// digest. Long enough for identity checks in a single-user tool, short
// enough to read in logs and tool responses.
const FingerprintLength = 16

// Fingerprint computes a truncated SHA-256 content fingerprint.
// Not a security primitive; used to detect whether two loads carry
// the same bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// FingerprintFile computes the fingerprint of a file's full content
// without buffering it in memory.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for fingerprinting: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file for fingerprinting: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil))[:FingerprintLength], nil
}
