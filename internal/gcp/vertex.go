package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/mediaingestflow/internal/models"
)

// --- OCR Model Prompts ---
const OCRSystemPrompt = "You are an optical character recognition engine. You transcribe the text visible in an image exactly as printed, without translating, summarising or correcting it. You must output your response as a valid JSON object."
const OCRLinesPrompt = `Transcribe every line of text visible in the image.

Follow these rules precisely:
1.  Emit one entry per printed line, in natural reading order (top to bottom, left to right).
2.  Preserve spelling, punctuation and capitalisation exactly. Do not merge or split lines.
3.  Skip decorative elements that contain no characters.
4.  The output MUST be a JSON object with a "lines" key holding an array of strings.`
const OCRStructurePrompt = `
5.  Additionally, add a "tables" key holding an array of tables found in the image. Each table is an object with a "cells" key holding the cell texts in row-major order.
6.  Additionally, add a "fields" key holding an array of form fields found in the image, each formatted as "label: value".`

// VertexOCR recognizes text in images with a Gemini model on Vertex AI.
type VertexOCR struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

type ocrResponse struct {
	Lines  []string `json:"lines"`
	Tables []struct {
		Cells []string `json:"cells"`
	} `json:"tables"`
	Fields []string `json:"fields"`
}

// NewVertexOCR creates a client with the OCR model pre-configured.
func NewVertexOCR(ctx context.Context, projectID, region string) (*VertexOCR, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexOCR: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	ocrModel := baseClient.GenerativeModel("gemini-1.5-pro")
	ocrModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}
	ocrModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexOCR{model: ocrModel, baseClient: baseClient}, nil
}

// Analyze returns LINE blocks in reading order, followed by TABLE/CELL and
// KEY_VALUE_SET blocks when those features are requested.
func (v *VertexOCR) Analyze(ctx context.Context, req models.OCRRequest) ([]models.OCRBlock, error) {
	prompt := OCRLinesPrompt
	structured := slices.Contains(req.Features, models.FeatureTables) || slices.Contains(req.Features, models.FeatureForms)
	if structured {
		prompt += OCRStructurePrompt
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	resp, err := v.model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: req.Image}, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate OCR content from gemini: %w", err)
	}

	return parseOCRResponse(resp)
}

// parseOCRResponse turns the model's JSON answer into blocks. An image with
// no text comes back as an empty "lines" array, so a response carrying no
// text at all is an error.
func parseOCRResponse(resp *genai.GenerateContentResponse) ([]models.OCRBlock, error) {
	jsonString := extractJSONContent(resp)
	if jsonString == "" {
		return nil, fmt.Errorf("gemini returned an empty OCR response")
	}
	var parsed ocrResponse
	if err := json.Unmarshal([]byte(jsonString), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OCR JSON from model: %w", err)
	}
	return parsed.blocks(), nil
}

func (r ocrResponse) blocks() []models.OCRBlock {
	blocks := make([]models.OCRBlock, 0, len(r.Lines)+1)
	blocks = append(blocks, models.OCRBlock{Type: models.BlockPage})
	for _, line := range r.Lines {
		blocks = append(blocks, models.OCRBlock{Type: models.BlockLine, Text: line})
	}
	for _, table := range r.Tables {
		blocks = append(blocks, models.OCRBlock{Type: models.BlockTable})
		for _, cell := range table.Cells {
			blocks = append(blocks, models.OCRBlock{Type: models.BlockCell, Text: cell})
		}
	}
	for _, field := range r.Fields {
		blocks = append(blocks, models.OCRBlock{Type: models.BlockKey, Text: field})
	}
	return blocks
}

// extractJSONContent robustly gets the raw text content from the model response.
func extractJSONContent(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		// Clean potential markdown fences just in case
		cleanJSON := strings.TrimSpace(string(txt))
		cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
		cleanJSON = strings.TrimSuffix(cleanJSON, "```")
		return strings.TrimSpace(cleanJSON)
	}
	return ""
}

func (v *VertexOCR) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}
