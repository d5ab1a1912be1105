// Package fingerprint derives short, deterministic cache keys from photos.
//
// A fingerprint is a cache key, not a content identity guarantee: it only
// needs to be stable for identical images and unlikely to collide for
// visually different meals.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	// Decoders for the formats phones and browsers upload.
	_ "image/gif"
	_ "image/png"

	"github.com/Veraticus/foodlens/internal/service"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Defaults for the rolling fingerprint.
const (
	DefaultPrefixBytes   = 4096
	DefaultThumbnailSize = 32
	DefaultQuality       = 10
)

// Method names accepted by New.
const (
	MethodRolling = "rolling"
	MethodDHash   = "dhash"
)

// Rolling re-encodes the image as a tiny low-quality JPEG and folds a fixed
// prefix of those bytes into an order-sensitive h = h*31 + b accumulator.
// Small differences in the original encoding mostly vanish in the thumbnail.
type Rolling struct {
	PrefixBytes   int
	ThumbnailSize int
	Quality       int
}

// NewRolling returns a Rolling fingerprinter with default settings.
func NewRolling() *Rolling {
	return &Rolling{
		PrefixBytes:   DefaultPrefixBytes,
		ThumbnailSize: DefaultThumbnailSize,
		Quality:       DefaultQuality,
	}
}

// Fingerprint implements service.Fingerprinter.
func (r *Rolling) Fingerprint(data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return rawKey(data, r.prefix())
	}

	encoded, err := r.reencode(img)
	if err != nil {
		return rawKey(data, r.prefix())
	}

	return fmt.Sprintf("rl-%016x", rollingHash(encoded, r.prefix()))
}

func (r *Rolling) reencode(img image.Image) ([]byte, error) {
	size := r.ThumbnailSize
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	quality := r.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	thumb := thumbnail(img, size)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Rolling) prefix() int {
	if r.PrefixBytes <= 0 {
		return DefaultPrefixBytes
	}
	return r.PrefixBytes
}

// New returns the fingerprinter for a configured method name.
func New(method string, prefixBytes int) (service.Fingerprinter, error) {
	switch strings.ToLower(method) {
	case "", MethodRolling:
		r := NewRolling()
		if prefixBytes > 0 {
			r.PrefixBytes = prefixBytes
		}
		return r, nil
	case MethodDHash:
		d := NewDHash()
		if prefixBytes > 0 {
			d.FallbackPrefixBytes = prefixBytes
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported fingerprint method: %s", method)
	}
}

func thumbnail(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func rollingHash(data []byte, limit int) uint64 {
	if limit > len(data) {
		limit = len(data)
	}
	var h uint64
	for _, b := range data[:limit] {
		h = h*31 + uint64(b)
	}
	return h
}

// rawKey is used when the bytes do not decode as an image.
func rawKey(data []byte, limit int) string {
	return fmt.Sprintf("raw-%016x-%d", rollingHash(data, limit), len(data))
}
