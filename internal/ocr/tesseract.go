// Package ocr runs local optical character recognition with Tesseract.
package ocr

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text through libtesseract. A fresh client is used
// per call; the underlying API handle is not safe for concurrent use.
type Tesseract struct {
	languages []string
}

// NewTesseract returns an engine for the given tesseract language codes.
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages}
}

// Analyze returns a PAGE block, the LINE blocks in reading order and, when
// FORMS or TABLES is requested, the layout blocks Tesseract detected.
func (t *Tesseract) Analyze(ctx context.Context, req models.OCRRequest) ([]models.OCRBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set OCR languages: %w", err)
	}
	if err := client.SetImageFromBytes(req.Image); err != nil {
		return nil, fmt.Errorf("failed to load image for OCR: %w", err)
	}

	lines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize text lines: %w", err)
	}

	blocks := []models.OCRBlock{{Type: models.BlockPage}}
	blocks = append(blocks, toBlocks(models.BlockLine, lines)...)

	if slices.Contains(req.Features, models.FeatureTables) || slices.Contains(req.Features, models.FeatureForms) {
		layout, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
		if err != nil {
			return nil, fmt.Errorf("failed to recognize layout blocks: %w", err)
		}
		blocks = append(blocks, toBlocks(models.BlockLayout, layout)...)
	}
	return blocks, nil
}

func toBlocks(blockType string, boxes []gosseract.BoundingBox) []models.OCRBlock {
	out := make([]models.OCRBlock, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		out = append(out, models.OCRBlock{Type: blockType, Text: text, Confidence: box.Confidence})
	}
	return out
}
