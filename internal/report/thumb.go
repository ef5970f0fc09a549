package report

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

// thumbWidth is the max width of HTML report thumbnails.
const thumbWidth = 480

// Thumbnail writes a downscaled copy of the PNG at srcPath next to it and
// returns the copy's path. Images already narrow enough are returned
// unchanged.
func Thumbnail(srcPath string, maxWidth uint) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("thumbnail: open %s: %w", srcPath, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("thumbnail: decode %s: %w", srcPath, err)
	}
	if uint(img.Bounds().Dx()) <= maxWidth {
		return srcPath, nil
	}

	small := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	dst := strings.TrimSuffix(srcPath, ".png") + "_thumb.png"
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("thumbnail: create %s: %w", dst, err)
	}
	defer out.Close()

	if err := png.Encode(out, small); err != nil {
		return "", fmt.Errorf("thumbnail: encode %s: %w", dst, err)
	}
	return dst, nil
}
