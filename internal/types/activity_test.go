package types

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

type ActivityTestSuite struct {
	suite.Suite
	transactionTime time.Time
}

func TestActivitySuite(t *testing.T) {
	suite.Run(t, new(ActivityTestSuite))
}

func (suite *ActivityTestSuite) SetupSuite() {
	suite.transactionTime = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
}

func (suite *ActivityTestSuite) fillActivity() alpaca.AccountActivity {
	return alpaca.AccountActivity{
		ID:              "20240301143000000::a1",
		ActivityType:    "FILL",
		TransactionTime: suite.transactionTime,
		Type:            "fill",
		Price:           decimal.NewFromFloat(187.5),
		Qty:             decimal.NewFromInt(25),
		Side:            "buy",
		Symbol:          "AAPL",
	}
}

func (suite *ActivityTestSuite) TestParseFillEvent() {
	event, err := ParseFillEvent(suite.fillActivity())
	suite.Require().NoError(err)

	suite.Equal("20240301143000000::a1", event.ID)
	suite.Equal("AAPL", event.Symbol)
	suite.Equal(SideBuy, event.Side)
	suite.Equal(int64(25), event.Qty)
	suite.True(event.Price.Equal(decimal.NewFromFloat(187.5)))
	suite.Equal(suite.transactionTime, event.TransactionTime)
}

func (suite *ActivityTestSuite) TestParseFillEventRejections() {
	tests := []struct {
		name   string
		mutate func(*alpaca.AccountActivity)
	}{
		{
			name:   "non-fill activity",
			mutate: func(a *alpaca.AccountActivity) { a.ActivityType = "DIV" },
		},
		{
			name:   "unknown side",
			mutate: func(a *alpaca.AccountActivity) { a.Side = "sell_short" },
		},
		{
			name:   "zero quantity",
			mutate: func(a *alpaca.AccountActivity) { a.Qty = decimal.Zero },
		},
		{
			name:   "fractional quantity",
			mutate: func(a *alpaca.AccountActivity) { a.Qty = decimal.NewFromFloat(1.5) },
		},
		{
			name:   "zero price",
			mutate: func(a *alpaca.AccountActivity) { a.Price = decimal.Zero },
		},
		{
			name:   "negative price",
			mutate: func(a *alpaca.AccountActivity) { a.Price = decimal.NewFromInt(-10) },
		},
		{
			name:   "empty symbol",
			mutate: func(a *alpaca.AccountActivity) { a.Symbol = "" },
		},
		{
			name:   "zero transaction time",
			mutate: func(a *alpaca.AccountActivity) { a.TransactionTime = time.Time{} },
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			activity := suite.fillActivity()
			tt.mutate(&activity)

			_, err := ParseFillEvent(activity)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeActivityParseFailed), "got %v", err)
		})
	}
}

func (suite *ActivityTestSuite) TestParseSide() {
	side, err := ParseSide("buy")
	suite.NoError(err)
	suite.Equal(SideBuy, side)

	side, err = ParseSide("sell")
	suite.NoError(err)
	suite.Equal(SideSell, side)

	_, err = ParseSide("hold")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedEvent))
}

func (suite *ActivityTestSuite) TestValidate() {
	event := FillEvent{
		ID:              "1",
		Symbol:          "AAPL",
		Side:            SideSell,
		Qty:             10,
		Price:           decimal.NewFromInt(100),
		TransactionTime: suite.transactionTime,
	}
	suite.NoError(event.Validate())

	event.Qty = -1
	suite.Error(event.Validate())
}
