// Package symbols loads the ticker list a command operates on, either from
// a comma-separated flag value or from a symbols file with one ticker per
// line.
package symbols

import (
	"os"
	"strings"

	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// Load resolves the symbol list. A non-empty list value wins over the file.
// Returns ErrCodeNoSymbols when neither source yields any symbol.
func Load(list string, file string) ([]string, error) {
	var symbols []string

	switch {
	case list != "":
		symbols = FromList(list)
	case file != "":
		var err error

		symbols, err = FromFile(file)
		if err != nil {
			return nil, err
		}
	}

	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeNoSymbols, "no symbols given; use --symbols or --symbols-file")
	}

	return symbols, nil
}

// FromList splits a comma-separated symbol list, dropping empty entries.
func FromList(list string) []string {
	var symbols []string

	for _, symbol := range strings.Split(list, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}

	return symbols
}

// FromFile reads one symbol per line. Blank lines, comment lines starting
// with '#', and class-share style tickers containing '/' are skipped.
func FromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSymbolsFileFailed, err, "read symbols file %q", path)
	}

	var symbols []string

	for _, line := range strings.Split(string(data), "\n") {
		symbol := strings.TrimSpace(line)
		if !valid(symbol) {
			continue
		}

		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func valid(symbol string) bool {
	return symbol != "" && !strings.Contains(symbol, "/") && !strings.HasPrefix(symbol, "#")
}
