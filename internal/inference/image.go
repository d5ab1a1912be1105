package inference

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	// Formats accepted by remote analyzers.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Veraticus/foodlens/internal/common"
	_ "golang.org/x/image/webp"
)

// inspectImage checks that data decodes as an image and returns its format
// name and MIME type.
func inspectImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty image", common.ErrInvalidImage)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", common.ErrInvalidImage, err)
	}

	mime := http.DetectContentType(data)
	if format == "webp" {
		mime = "image/webp"
	}
	return format, mime, nil
}
