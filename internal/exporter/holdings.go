package exporter

import (
	"supercli/pkg/contracts/domain"
)

// HoldingsWriter streams cleaned holding records into the canonical
// 14-column CSV. It is the record sink the scanner emits into.
type HoldingsWriter struct {
	stream *StreamWriter
	count  int
}

// NewHoldingsWriter opens the output file and writes the canonical header.
func (w *CSVWriter) NewHoldingsWriter(filePath string) (*HoldingsWriter, error) {
	stream, err := w.CreateStreamWriter(filePath, domain.HoldingColumns)
	if err != nil {
		return nil, err
	}
	return &HoldingsWriter{stream: stream}, nil
}

// WriteRecord appends one holding to the output.
func (h *HoldingsWriter) WriteRecord(rec *domain.HoldingRecord) error {
	if err := h.stream.WriteRecord(rec.CSVRow()); err != nil {
		return err
	}
	h.count++
	return nil
}

// Count reports how many records have been written.
func (h *HoldingsWriter) Count() int {
	return h.count
}

// Close flushes and closes the output file.
func (h *HoldingsWriter) Close() error {
	return h.stream.Close()
}
