package writer

import (
	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// WriterType identifies an output format for downloaded bars.
type WriterType string

const (
	WriterJSON    WriterType = "json"
	WriterCSV     WriterType = "csv"
	WriterParquet WriterType = "parquet"
)

// BarWriter persists one symbol's bars to a file and returns the path it
// wrote. Writers are safe to call from multiple goroutines.
type BarWriter interface {
	// Name returns the writer's format identifier.
	Name() WriterType
	// Write persists the bars for a single symbol.
	Write(data types.SymbolBars) (outputPath string, err error)
}

// New creates a writer of the given type that writes files into outputDir.
func New(writerType WriterType, outputDir string) (BarWriter, error) {
	switch writerType {
	case WriterJSON:
		return NewJSONWriter(outputDir), nil
	case WriterCSV:
		return NewCSVWriter(outputDir), nil
	case WriterParquet:
		return NewParquetWriter(outputDir), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidWriter,
			"unknown writer type %q (supported: json, csv, parquet)", writerType)
	}
}

// Supported returns the writer types accepted by New.
func Supported() []string {
	return []string{string(WriterJSON), string(WriterCSV), string(WriterParquet)}
}
