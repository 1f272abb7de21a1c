// Package writer writes command reports as JSON, compressed according to the
// output file's extension.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/classkit/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
	// Level is used when the output file name selects a compressed codec.
	Level compression.Level
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Level: compression.LevelDefault}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  ", Level: compression.LevelDefault}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteResult contains statistics about the written file.
type WriteResult struct {
	Codec          compression.Type
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFile writes the data to path. A ".gz" or ".zst" suffix compresses
// the JSON with that codec.
func (w *JSONWriter[T]) WriteToFile(data T, path string) (*WriteResult, error) {
	var payload []byte
	var err error
	if w.Indent != "" {
		payload, err = json.MarshalIndent(data, "", w.Indent)
	} else {
		payload, err = json.Marshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	payload = append(payload, '\n')

	codec := CodecForPath(path)
	comp, err := compression.New(codec, w.Level)
	if err != nil {
		return nil, err
	}
	defer compression.Close(comp)

	out, err := comp.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	result := &WriteResult{
		Codec:          codec,
		JSONSize:       int64(len(payload)),
		CompressedSize: int64(len(out)),
	}
	if result.JSONSize > 0 {
		result.CompressionPct = float64(result.CompressedSize) / float64(result.JSONSize) * 100
	}
	return result, nil
}

// CodecForPath selects the codec named by the file extension.
func CodecForPath(path string) compression.Type {
	switch filepath.Ext(path) {
	case compression.TypeGzip.Extension():
		return compression.TypeGzip
	case compression.TypeZstd.Extension():
		return compression.TypeZstd
	default:
		return compression.TypeNone
	}
}
