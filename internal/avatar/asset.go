// Package avatar fetches avatar images, normalizes them to the canonical JPEG
// encoding and uploads them to the image hosting service.
package avatar

import (
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CanonicalMIMEType is the only encoding handed to the upload endpoint.
const CanonicalMIMEType = "image/jpeg"

// DefaultMaxBytes caps fetched and loaded payloads.
const DefaultMaxBytes = 10 << 20

// Asset is an encoded image payload held in memory.
type Asset struct {
	Data     []byte
	MIMEType string
	// Source describes where the bytes came from, for logs.
	Source string
}

// Normalized reports whether the asset is already in the canonical encoding.
func (a *Asset) Normalized() bool {
	return a != nil && a.MIMEType == CanonicalMIMEType
}

// FromReader reads at most maxBytes from r and sniffs its MIME type.
func FromReader(r io.Reader, source string, maxBytes int64) (*Asset, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", source, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", source)
	}
	return &Asset{Data: data, MIMEType: sniff(data, ""), Source: source}, nil
}

// LoadFile reads a local image file into an Asset.
func LoadFile(path string, maxBytes int64) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open avatar file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return FromReader(f, path, maxBytes)
}

// sniff prefers the detected image type over what a server or caller declared.
func sniff(data []byte, declared string) string {
	detected := mediaType(mimetype.Detect(data).String())
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	if declared = mediaType(declared); declared != "" {
		return declared
	}
	return detected
}

func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		before, _, _ := strings.Cut(v, ";")
		return strings.TrimSpace(strings.ToLower(before))
	}
	return mt
}
