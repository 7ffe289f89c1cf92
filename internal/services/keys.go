package services

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	// CompletionMarker is the suffix of every transcription job result key.
	CompletionMarker = "transcribe.out"
	// TranscriptSuffix is appended to the decoded source key for the final transcript.
	TranscriptSuffix = ".txt"
	// OCRArtifactName is the aggregated OCR text object name.
	OCRArtifactName = "textract.txt"

	// KeyEncodingV1 escapes '~' as "~7E" and ' ' as "~20".
	KeyEncodingV1 = "v1"

	jobTimeLayout = "2006-01-02-15-04-05"
	mediaScheme   = "gs"
)

var keyEscaper = strings.NewReplacer("~", "~7E", " ", "~20")

// EncodeKey applies key encoding v1. The transcription service rejects
// spaces in output keys, so each space becomes a 3-character marker.
func EncodeKey(key string) string {
	return keyEscaper.Replace(key)
}

// DecodeKey reverses EncodeKey. Any '~' not followed by two hex digits is
// rejected rather than passed through.
func DecodeKey(encoded string) (string, error) {
	if !strings.Contains(encoded, "~") {
		return encoded, nil
	}
	var b strings.Builder
	b.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		if encoded[i] != '~' {
			b.WriteByte(encoded[i])
			continue
		}
		if i+2 >= len(encoded) {
			return "", fmt.Errorf("truncated escape at offset %d in key %q", i, encoded)
		}
		v, err := strconv.ParseUint(encoded[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid escape %q in key %q", encoded[i:i+3], encoded)
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}

// JobName builds a unique transcription job name. Job names may not
// contain spaces.
func JobName(now time.Time, key string) string {
	name := fmt.Sprintf("%s-%s", now.UTC().Format(jobTimeLayout), key)
	return strings.ReplaceAll(name, " ", "_")
}

// OutputKey is where the transcription job deposits its result for key.
func OutputKey(key string) string {
	return EncodeKey(key) + "/" + CompletionMarker
}

// TranscriptKey maps a job result key back to <original-key>.txt.
func TranscriptKey(outputKey string) (string, error) {
	if !strings.HasSuffix(outputKey, CompletionMarker) {
		return "", fmt.Errorf("key %q does not end in %s", outputKey, CompletionMarker)
	}
	base := strings.TrimSuffix(outputKey, CompletionMarker)
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return "", fmt.Errorf("key %q has no source component", outputKey)
	}
	decoded, err := DecodeKey(base)
	if err != nil {
		return "", err
	}
	return decoded + TranscriptSuffix, nil
}

// CleanupPrefix is the job's working directory: every segment of key but
// the last, with a trailing slash so sibling keys sharing a name prefix
// are not matched. The key is not cleaned, since "a//b" and "a/b" are
// different objects. Keys at the bucket root have no job directory.
func CleanupPrefix(key string) (string, error) {
	i := strings.LastIndex(key, "/")
	if i <= 0 {
		return "", fmt.Errorf("key %q has no parent prefix", key)
	}
	return key[:i+1], nil
}

// ChildKey nests name under key verbatim, without cleaning either part.
func ChildKey(key, name string) string {
	return key + "/" + name
}

// MediaFormat is the file extension of key, without the dot.
func MediaFormat(key string) string {
	ext := path.Ext(key)
	return strings.TrimPrefix(ext, ".")
}

// MediaURI is the source media location handed to the transcription job.
// The key is used as-is; only the output key is encoded.
func MediaURI(bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", mediaScheme, bucket, key)
}
