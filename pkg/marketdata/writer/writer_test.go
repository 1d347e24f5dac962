package writer

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

type WriterTestSuite struct {
	suite.Suite
	outputDir string
	data      types.SymbolBars
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	suite.outputDir = suite.T().TempDir()
	suite.data = types.SymbolBars{
		Symbol: "AAPL",
		Bars: []types.Bar{
			{
				Time:   time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
				Open:   170.5,
				High:   171.2,
				Low:    170.1,
				Close:  171.0,
				Volume: 120000,
			},
			{
				Time:   time.Date(2024, 3, 1, 14, 31, 0, 0, time.UTC),
				Open:   171.0,
				High:   171.8,
				Low:    170.9,
				Close:  171.5,
				Volume: 98000,
			},
		},
	}
}

func (suite *WriterTestSuite) TestFactory() {
	for _, name := range Supported() {
		w, err := New(WriterType(name), suite.outputDir)
		suite.Require().NoError(err)
		suite.Equal(WriterType(name), w.Name())
	}

	_, err := New(WriterType("xml"), suite.outputDir)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidWriter))
}

func (suite *WriterTestSuite) TestJSONWriter() {
	w := NewJSONWriter(suite.outputDir)

	outputPath, err := w.Write(suite.data)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.outputDir, "AAPL.json"), outputPath)

	raw, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)

	var decoded map[string][]types.Bar
	suite.Require().NoError(json.Unmarshal(raw, &decoded))
	suite.Require().Contains(decoded, "AAPL")
	suite.Len(decoded["AAPL"], 2)
	suite.Equal(suite.data.Bars[0].Time, decoded["AAPL"][0].Time)
	suite.InDelta(171.0, decoded["AAPL"][0].Close, 1e-9)

	// The payload keys follow the original export layout.
	var fields map[string]json.RawMessage
	var bars []map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(raw, &fields))
	suite.Require().NoError(json.Unmarshal(fields["AAPL"], &bars))
	suite.Contains(bars[0], "DateTime")
	suite.Contains(bars[0], "Open")
	suite.Contains(bars[0], "Volume")
}

func (suite *WriterTestSuite) TestCSVWriter() {
	w := NewCSVWriter(suite.outputDir)

	outputPath, err := w.Write(suite.data)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.outputDir, "AAPL.csv"), outputPath)

	file, err := os.Open(outputPath)
	suite.Require().NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 3)
	suite.Equal([]string{"DateTime", "Open", "High", "Low", "Close", "Volume"}, records[0])
	suite.Equal("2024-03-01T14:30:00Z", records[1][0])
	suite.Equal("170.5", records[1][1])
	suite.Equal("171.5", records[2][4])
}

func (suite *WriterTestSuite) TestCSVWriterEmptyBars() {
	w := NewCSVWriter(suite.outputDir)

	outputPath, err := w.Write(types.SymbolBars{Symbol: "MSFT"})
	suite.Require().NoError(err)

	file, err := os.Open(outputPath)
	suite.Require().NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	suite.Require().NoError(err)
	suite.Len(records, 1)
}

func (suite *WriterTestSuite) TestParquetWriter() {
	w := NewParquetWriter(suite.outputDir)

	outputPath, err := w.Write(suite.data)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.outputDir, "AAPL.parquet"), outputPath)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	row := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, outputPath))
	suite.Require().NoError(row.Scan(&count))
	suite.Equal(2, count)

	var symbol string
	var closePrice float64
	row = db.QueryRow(fmt.Sprintf(
		`SELECT symbol, close FROM read_parquet('%s') ORDER BY time LIMIT 1`, outputPath))
	suite.Require().NoError(row.Scan(&symbol, &closePrice))
	suite.Equal("AAPL", symbol)
	suite.InDelta(171.0, closePrice, 1e-9)
}
