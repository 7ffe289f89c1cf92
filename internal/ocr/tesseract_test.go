package ocr

import (
	"testing"

	"github.com/Lllllllleong/mediaingestflow/internal/models"
	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
)

func TestToBlocksSkipsBlankBoxes(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "Invoice 42\n", Confidence: 91.5},
		{Word: "   "},
		{Word: "Total: 10.00", Confidence: 88},
	}

	got := toBlocks(models.BlockLine, boxes)

	assert.Equal(t, []models.OCRBlock{
		{Type: models.BlockLine, Text: "Invoice 42", Confidence: 91.5},
		{Type: models.BlockLine, Text: "Total: 10.00", Confidence: 88},
	}, got)
}

func TestNewTesseractDefaultsToEnglish(t *testing.T) {
	assert.Equal(t, []string{"eng"}, NewTesseract().languages)
	assert.Equal(t, []string{"deu", "eng"}, NewTesseract("deu", "eng").languages)
}
