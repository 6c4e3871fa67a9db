package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/lorescan/internal/model"
)

// JSONWriter outputs results in JSON format for tool integration.
//
// Design decision: standard encoding/json is sufficient here; the model
// types already carry their wire tags and the custom marshalling for the
// classified/filtered variant lives on the types themselves.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteExtraction outputs the extraction result as JSON.
func (w *JSONWriter) WriteExtraction(result model.PipelineResult) (int, error) {
	return w.encode(result)
}

// WriteDetection outputs the detection result as JSON.
func (w *JSONWriter) WriteDetection(result model.DetectionResult) (int, error) {
	return w.encode(result)
}

// WritePresence outputs the presence records as JSON.
func (w *JSONWriter) WritePresence(records []model.CrossBookRecord) (int, error) {
	if records == nil {
		records = []model.CrossBookRecord{}
	}
	return w.encode(records)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
