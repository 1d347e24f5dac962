package writer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// JSONWriter writes each symbol's bars to <outputDir>/<symbol>.json as a
// single-key object mapping the symbol to its bar list.
type JSONWriter struct {
	outputDir string
}

func NewJSONWriter(outputDir string) *JSONWriter {
	return &JSONWriter{outputDir: outputDir}
}

func (w *JSONWriter) Name() WriterType {
	return WriterJSON
}

func (w *JSONWriter) Write(data types.SymbolBars) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "creating output directory %s", w.outputDir)
	}

	payload := map[string][]types.Bar{data.Symbol: data.Bars}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "encoding bars for %s", data.Symbol)
	}

	outputPath := filepath.Join(w.outputDir, data.Symbol+".json")
	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "writing %s", outputPath)
	}

	return outputPath, nil
}
