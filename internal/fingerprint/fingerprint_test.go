package fingerprint

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int, shift uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x*255/w) + shift,
				G: uint8(y*255/h),
				B: 128 - shift,
				A: 255,
			})
		}
	}
	return img
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image, level png.CompressionLevel) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestRolling_Fingerprint(t *testing.T) {
	r := NewRolling()

	t.Run("deterministic", func(t *testing.T) {
		data := encodePNG(t, gradient(120, 80, 0), png.DefaultCompression)
		first := r.Fingerprint(data)
		second := r.Fingerprint(data)
		assert.Equal(t, first, second)
		assert.True(t, strings.HasPrefix(first, "rl-"), first)
	})

	t.Run("same pixels with different encodings share a key", func(t *testing.T) {
		img := gradient(120, 80, 0)
		fast := encodePNG(t, img, png.BestSpeed)
		small := encodePNG(t, img, png.BestCompression)
		require.NotEqual(t, fast, small)

		assert.Equal(t, r.Fingerprint(fast), r.Fingerprint(small))
	})

	t.Run("visually different images differ", func(t *testing.T) {
		a := r.Fingerprint(encodePNG(t, gradient(120, 80, 0), png.DefaultCompression))
		b := r.Fingerprint(encodePNG(t, checkerboard(120, 80), png.DefaultCompression))
		assert.NotEqual(t, a, b)
	})

	t.Run("undecodable bytes fall back to a raw key", func(t *testing.T) {
		data := []byte("definitely not an image")
		key := r.Fingerprint(data)
		assert.True(t, strings.HasPrefix(key, "raw-"), key)
		assert.Equal(t, key, r.Fingerprint(data))
		assert.NotEqual(t, key, r.Fingerprint([]byte("also not an image")))
	})

	t.Run("raw key only reads the prefix", func(t *testing.T) {
		small := &Rolling{PrefixBytes: 4}
		assert.Equal(t,
			small.Fingerprint([]byte("abcdXXXX")),
			small.Fingerprint([]byte("abcdYYYY")),
		)
	})
}

func TestRollingHash(t *testing.T) {
	assert.Equal(t, uint64(0), rollingHash(nil, 10))
	// 'a'*31 + 'b'
	assert.Equal(t, uint64(97*31+98), rollingHash([]byte("ab"), 10))
	assert.Equal(t, uint64(97), rollingHash([]byte("ab"), 1))
}

func TestDHash_Fingerprint(t *testing.T) {
	d := NewDHash()

	data := encodePNG(t, gradient(96, 96, 0), png.DefaultCompression)
	key := d.Fingerprint(data)
	assert.True(t, strings.HasPrefix(key, "dh-"), key)
	assert.Len(t, key, len("dh-")+32)
	assert.Equal(t, key, d.Fingerprint(data))

	assert.True(t, strings.HasPrefix(d.Fingerprint([]byte("garbage")), "raw-"))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		want    any
		wantErr bool
	}{
		{name: "empty defaults to rolling", method: "", want: &Rolling{}},
		{name: "rolling", method: "rolling", want: &Rolling{}},
		{name: "dhash case insensitive", method: "DHash", want: &DHash{}},
		{name: "unknown", method: "sha256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := New(tt.method, 1024)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported fingerprint method")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, fp)
		})
	}

	fp, err := New("rolling", 1024)
	require.NoError(t, err)
	r, ok := fp.(*Rolling)
	require.True(t, ok)
	assert.Equal(t, 1024, r.PrefixBytes)
}
