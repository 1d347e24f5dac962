package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// ParquetWriter stages bars in an in-memory DuckDB table and exports them
// to <outputDir>/<symbol>.parquet via DuckDB's parquet COPY.
type ParquetWriter struct {
	outputDir string
}

func NewParquetWriter(outputDir string) *ParquetWriter {
	return &ParquetWriter{outputDir: outputDir}
}

func (w *ParquetWriter) Name() WriterType {
	return WriterParquet
}

func (w *ParquetWriter) Write(data types.SymbolBars) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "creating output directory %s", w.outputDir)
	}

	outputPath := filepath.Join(w.outputDir, data.Symbol+".parquet")

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "opening DuckDB connection")
	}
	defer db.Close()

	if err := w.export(db, data, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

func (w *ParquetWriter) export(db *sql.DB, data types.SymbolBars, outputPath string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "creating staging table")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "beginning transaction")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO market_data (id, time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "preparing insert statement")
	}

	for _, bar := range data.Bars {
		_, err := stmt.Exec(
			uuid.New().String(),
			bar.Time,
			data.Symbol,
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
		)
		if err != nil {
			stmt.Close()
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "inserting bar for %s", data.Symbol)
		}
	}

	if err := stmt.Close(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "closing insert statement")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeBarsWriteFailed, err, "committing transaction")
	}

	_, err = db.Exec(fmt.Sprintf(`COPY market_data TO '%s' (FORMAT PARQUET)`, outputPath))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBarsWriteFailed, err, "exporting parquet to %s", outputPath)
	}

	return nil
}
