// Package pdfimages pulls the raster images embedded in a PDF's page
// content streams. Rendered page images are never produced.
package pdfimages

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extractor writes embedded images to a local directory using pdfcpu.
type Extractor struct {
	conf *model.Configuration
}

// NewExtractor returns an Extractor that parses in relaxed validation mode.
func NewExtractor() *Extractor {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: cfg}
}

type rawImage struct {
	page  int
	objNr int
	mime  string
	data  []byte
}

// Extract writes every embedded image of pdfPath into outDir as
// page<N>_img<M>.png and returns them ordered by page, then position.
// A document that cannot be opened, or has no pages, yields no images and
// no error.
func (e *Extractor) Extract(pdfPath, outDir string) ([]models.ExtractedImage, error) {
	logCtx := slog.With("pdfPath", pdfPath)

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", pdfPath, err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, e.conf)
	if err != nil {
		logCtx.Warn("Document could not be read as PDF. Skipping image extraction.", "error", err)
		return nil, nil
	}
	if pageCount == 0 {
		logCtx.Warn("Document has no pages. Skipping image extraction.")
		return nil, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", pdfPath, err)
	}

	var raws []rawImage
	digest := func(img model.Image, _ bool, _ int) error {
		data, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("failed to read image %d on page %d: %w", img.ObjNr, img.PageNr, err)
		}
		raws = append(raws, rawImage{page: img.PageNr, objNr: img.ObjNr, mime: mimeFor(img.FileType), data: data})
		return nil
	}
	if err := api.ExtractImages(f, nil, digest, e.conf); err != nil {
		logCtx.Warn("Image extraction failed. Treating document as image-free.", "error", err)
		return nil, nil
	}
	logCtx.Info("Extracted embedded images.", "pageCount", pageCount, "imageCount", len(raws))

	images := nameImages(raws)
	for i := range images {
		images[i].Path = filepath.Join(outDir, images[i].Name)
		if err := os.WriteFile(images[i].Path, raws[i].data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", images[i].Path, err)
		}
	}
	return images, nil
}

// nameImages sorts raws in place by page and object number and assigns
// 1-indexed page<N>_img<M>.png names. pdfcpu hands a page's images over
// from a map, so the object number is what keeps names stable across runs.
func nameImages(raws []rawImage) []models.ExtractedImage {
	sort.SliceStable(raws, func(i, j int) bool {
		if raws[i].page != raws[j].page {
			return raws[i].page < raws[j].page
		}
		return raws[i].objNr < raws[j].objNr
	})

	images := make([]models.ExtractedImage, len(raws))
	index := 0
	for i, raw := range raws {
		if i == 0 || raws[i-1].page != raw.page {
			index = 0
		}
		index++
		images[i] = models.ExtractedImage{
			Name:     fmt.Sprintf("page%d_img%d.png", raw.page, index),
			Page:     raw.page,
			Index:    index,
			MIMEType: raw.mime,
		}
	}
	return images
}

func mimeFor(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "jp2":
		return "image/jp2"
	default:
		return "image/png"
	}
}
