package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/webp"

	"github.com/ivlev/shortsreel/internal/geometry"
	"github.com/ivlev/shortsreel/internal/system"
)

// ImageSource serves still images in a fixed order.
type ImageSource struct {
	paths []string
}

// NewImageSource accepts image files and directories. A directory
// contributes its images sorted by name; files keep the given order.
func NewImageSource(paths ...string) (*ImageSource, error) {
	var out []string
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			if !system.HasExt(path, system.ImageExts) {
				return nil, fmt.Errorf("%s: not a supported image", path)
			}
			out = append(out, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && system.HasExt(entry.Name(), system.ImageExts) {
				found = append(found, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return &ImageSource{paths: out}, nil
}

func (s *ImageSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageSize(index int) (geometry.Size, error) {
	if index < 0 || index >= len(s.paths) {
		return geometry.Size{}, fmt.Errorf("slide %d out of range", index)
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return geometry.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return geometry.Size{W: cfg.Width, H: cfg.Height}, nil
}

// RenderPage decodes the image; dpi only matters for PDF sources.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("slide %d out of range", index)
	}
	return DecodeFile(s.paths[index])
}

func (s *ImageSource) Close() error {
	return nil
}

// DecodeFile decodes a jpeg, png or webp file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
