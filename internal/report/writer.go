package report

import (
	"io"

	"github.com/nao1215/lorescan/internal/model"
)

// Writer renders results to a configured destination.
//
// Design decision: one interface for all result kinds keeps command code
// format-agnostic; a format is chosen once and every result type renders
// through it. Returns follow io conventions: bytes written plus error.
type Writer interface {
	// WriteExtraction outputs an extraction pipeline result.
	WriteExtraction(result model.PipelineResult) (int, error)

	// WriteDetection outputs a detection run result.
	WriteDetection(result model.DetectionResult) (int, error)

	// WritePresence outputs a cross-book presence aggregation.
	WritePresence(records []model.CrossBookRecord) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, such as the
// terminal and a report file.
//
// Design decision: a separate type rather than io.MultiWriter because
// our Writer renders results, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteExtraction outputs the result to all configured Writers. It stops
// on the first error and returns the bytes written so far.
func (m *MultiWriter) WriteExtraction(result model.PipelineResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteExtraction(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDetection outputs the result to all configured Writers.
func (m *MultiWriter) WriteDetection(result model.DetectionResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDetection(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WritePresence outputs the records to all configured Writers.
func (m *MultiWriter) WritePresence(records []model.CrossBookRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WritePresence(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
