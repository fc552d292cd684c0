// Package source supplies slide images from image files or PDF pages.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/shortsreel/internal/geometry"
	"github.com/ivlev/shortsreel/internal/system"
)

var ErrEmpty = errors.New("source has no slides")

// Source is an ordered set of slides.
type Source interface {
	PageCount() int
	PageSize(index int) (geometry.Size, error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a PDF source for .pdf files and an image source otherwise.
// Several paths are always treated as images.
func Open(paths ...string) (Source, error) {
	if len(paths) == 1 && system.HasExt(paths[0], system.PDFExts) {
		return NewFitzPDFSource(paths[0])
	}
	src, err := NewImageSource(paths...)
	if err != nil {
		return nil, err
	}
	if src.PageCount() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, strings.Join(paths, ", "))
	}
	return src, nil
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) PageSize(index int) (geometry.Size, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return geometry.Size{}, err
	}
	return geometry.Size{W: rect.Dx(), H: rect.Dy()}, nil
}

// RenderPage opens its own document handle so pages can render in
// parallel.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
