package models

// OCR block types. Only BlockLine contributes text to OCR artifacts.
const (
	BlockPage   = "PAGE"
	BlockLine   = "LINE"
	BlockTable  = "TABLE"
	BlockCell   = "CELL"
	BlockKey    = "KEY_VALUE_SET"
	BlockLayout = "LAYOUT"
)

// OCR features requested alongside plain line detection.
const (
	FeatureForms  = "FORMS"
	FeatureTables = "TABLES"
)

// OCRBlock is one typed unit of recognized content, in service order.
type OCRBlock struct {
	Type       string
	Text       string
	Confidence float64
}

// OCRRequest carries the raw image bytes to recognize.
type OCRRequest struct {
	Image    []byte
	MIMEType string
	Features []string
}

// ExtractedImage is one embedded raster image written to scratch space.
type ExtractedImage struct {
	Name     string // page<N>_img<M>.png
	Path     string
	Page     int
	Index    int
	MIMEType string
}
