package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// RequestSignature computes the signature header for a signed API request.
// The signed payload is "<timestampMillis>:<path>:<key>" and the digest is
// HMAC-SHA256 keyed with the API key, hex encoded.
//
// The path is normalized before signing: query parameters are stripped, a
// leading slash is ensured and a trailing slash is removed.
func RequestSignature(requestPath, apiKey string, timestampMillis int64) string {
	path := NormalizePath(requestPath)
	data := fmt.Sprintf("%d:%s:%s", timestampMillis, path, apiKey)
	return HMACSHA256(apiKey, data)
}

// NormalizePath reduces a request path to its signable form.
func NormalizePath(requestPath string) string {
	if i := strings.IndexByte(requestPath, '?'); i >= 0 {
		requestPath = requestPath[:i]
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	requestPath = strings.TrimSuffix(requestPath, "/")
	return requestPath
}

// HMACSHA256 returns the hex-encoded HMAC-SHA256 of message under key.
func HMACSHA256(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// xorMask is the rolling mask applied to keys held obfuscated at rest. It
// keeps credentials out of casual string dumps; it is not encryption.
var xorMask = []byte("streampool")

// obfuscatedPrefix marks a stored key as obfuscated. Plain keys are never
// valid with this prefix, so the two forms cannot be confused.
const obfuscatedPrefix = "obf:"

// Obfuscate encodes a key for storage in configuration files.
func Obfuscate(key string) string {
	b := []byte(key)
	for i := range b {
		b[i] ^= xorMask[i%len(xorMask)]
	}
	return obfuscatedPrefix + base64.StdEncoding.EncodeToString(b)
}

// Deobfuscate reverses Obfuscate. Values without the obfuscation marker are
// returned unchanged, so plain-text keys keep working verbatim.
func Deobfuscate(stored string) string {
	encoded, ok := strings.CutPrefix(stored, obfuscatedPrefix)
	if !ok {
		return stored
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return stored
	}
	for i := range b {
		b[i] ^= xorMask[i%len(xorMask)]
	}
	return string(b)
}
