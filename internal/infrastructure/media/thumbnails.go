// Package media provides image processing for recovery email thumbnails.
package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ThumbnailGenerator produces small product thumbnails for reminder emails
// from images in the local media directory.
type ThumbnailGenerator struct {
	basePath string // Root of the product media directory
	baseURL  string // Public URL prefix the thumbnails are served under
}

// NewThumbnailGenerator creates a ThumbnailGenerator rooted at basePath.
func NewThumbnailGenerator(basePath, baseURL string) *ThumbnailGenerator {
	return &ThumbnailGenerator{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// ThumbnailURL returns the public URL for a product image thumbnail,
// generating it on first use. The empty string is returned when the source
// image is missing or unreadable; the email simply renders without an image.
func (g *ThumbnailGenerator) ThumbnailURL(imagePath string, width int) string {
	if imagePath == "" {
		return ""
	}

	relPath, err := g.ensureThumbnail(imagePath, width)
	if err != nil {
		return ""
	}
	return g.baseURL + "/" + relPath
}

// ensureThumbnail generates the resized webp thumbnail when absent and
// returns its path relative to the media root.
func (g *ThumbnailGenerator) ensureThumbnail(imagePath string, width int) (string, error) {
	sourcePath := filepath.Join(g.basePath, filepath.Clean("/"+imagePath))

	basename := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	thumbName := fmt.Sprintf("%s_%dpx.webp", basename, width)
	thumbsDir := filepath.Join(g.basePath, "thumbs")
	thumbPath := filepath.Join(thumbsDir, thumbName)

	if _, err := os.Stat(thumbPath); err == nil {
		return filepath.Join("thumbs", thumbName), nil
	}

	img, err := g.decode(sourcePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbs directory: %w", err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)
	if err := webp.Save(thumbPath, resized, &webp.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return filepath.Join("thumbs", thumbName), nil
}

// decode loads the source image, routing webp through its dedicated decoder
// since imaging has no native webp support.
func (g *ThumbnailGenerator) decode(sourcePath string) (image.Image, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(sourcePath), ".webp") {
		img, err := webp.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp image: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
