package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// CSVWriter writes each symbol's bars to <outputDir>/<symbol>.csv.
type CSVWriter struct {
	outputDir string
}

func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

func (w *CSVWriter) Name() WriterType {
	return WriterCSV
}

func (w *CSVWriter) Write(data types.SymbolBars) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "creating output directory %s", w.outputDir)
	}

	outputPath := filepath.Join(w.outputDir, data.Symbol+".csv")

	file, err := os.Create(outputPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "creating %s", outputPath)
	}
	defer file.Close()

	cw := csv.NewWriter(file)

	if err := cw.Write([]string{"DateTime", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "writing header for %s", data.Symbol)
	}

	for _, bar := range data.Bars {
		record := []string{
			bar.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
			strconv.FormatFloat(bar.Open, 'f', -1, 64),
			strconv.FormatFloat(bar.High, 'f', -1, 64),
			strconv.FormatFloat(bar.Low, 'f', -1, 64),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			strconv.FormatFloat(bar.Volume, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "writing row for %s", data.Symbol)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "flushing %s", outputPath)
	}

	return outputPath, nil
}
