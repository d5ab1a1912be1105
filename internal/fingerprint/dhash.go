package fingerprint

import (
	"bytes"
	"fmt"
	"image"

	"github.com/rivo/duplo"
)

// DHash keys images by duplo's 128-bit difference hash. It is more tolerant
// of recompression and resizing than Rolling, at a higher collision rate for
// similar-looking plates.
type DHash struct {
	FallbackPrefixBytes int
}

// NewDHash returns a DHash fingerprinter.
func NewDHash() *DHash {
	return &DHash{FallbackPrefixBytes: DefaultPrefixBytes}
}

// Fingerprint implements service.Fingerprinter.
func (d *DHash) Fingerprint(data []byte) string {
	limit := d.FallbackPrefixBytes
	if limit <= 0 {
		limit = DefaultPrefixBytes
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return rawKey(data, limit)
	}

	hash, _ := duplo.CreateHash(img)
	return fmt.Sprintf("dh-%016x%016x", hash.DHash[0], hash.DHash[1])
}
