package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/quantlab-dev/alpaca-dl/internal/logger"
	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/mocks"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata/provider"
)

type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	mockWriter   *mocks.MockBarWriter
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.mockWriter = mocks.NewMockBarWriter(suite.ctrl)
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ClientTestSuite) newClient(config ClientConfig) *Client {
	client, err := NewClient(suite.mockProvider, suite.mockWriter, logger.NewNopLogger(), config)
	suite.Require().NoError(err)

	return client
}

func (suite *ClientTestSuite) barsRequest(symbols ...string) BarsRequest {
	return BarsRequest{
		Symbols:   symbols,
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Timeframe: provider.TimeframeOneDay,
	}
}

func (suite *ClientTestSuite) TestNewClientValidation() {
	_, err := NewClient(suite.mockProvider, suite.mockWriter, logger.NewNopLogger(), ClientConfig{ChunkSize: 0})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewClient(suite.mockProvider, suite.mockWriter, logger.NewNopLogger(),
		ClientConfig{ChunkSize: 10, ChunkPause: -time.Second})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestDownloadBars() {
	symbols := []string{"AAPL", "MSFT", "TSLA"}

	for _, symbol := range symbols {
		data := types.SymbolBars{Symbol: symbol, Bars: []types.Bar{{Close: 100}}}

		suite.mockProvider.EXPECT().
			GetBars(gomock.Any(), gomock.AssignableToTypeOf(provider.BarRequest{})).
			DoAndReturn(func(_ context.Context, req provider.BarRequest) (types.SymbolBars, error) {
				return types.SymbolBars{Symbol: req.Symbol, Bars: data.Bars}, nil
			}).
			Times(1)
	}

	suite.mockWriter.EXPECT().
		Write(gomock.Any()).
		DoAndReturn(func(data types.SymbolBars) (string, error) {
			return data.Symbol + ".json", nil
		}).
		Times(3)

	client := suite.newClient(ClientConfig{ChunkSize: 2})

	summary, err := client.DownloadBars(context.Background(), suite.barsRequest(symbols...))
	suite.Require().NoError(err)
	suite.Equal(3, summary.Requested)
	suite.Equal(3, summary.Succeeded)
	suite.Equal(0, summary.Failed)
	suite.Equal([]string{"AAPL.json", "MSFT.json", "TSLA.json"}, summary.Files)
	suite.Empty(summary.FailedSymbols)
}

func (suite *ClientTestSuite) TestDownloadBarsPartialFailure() {
	fetchErr := errors.New(errors.ErrCodeBarsFetchFailed, "vendor returned 500")

	suite.mockProvider.EXPECT().
		GetBars(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req provider.BarRequest) (types.SymbolBars, error) {
			if req.Symbol == "BAD" {
				return types.SymbolBars{}, fetchErr
			}

			return types.SymbolBars{Symbol: req.Symbol}, nil
		}).
		Times(3)

	suite.mockWriter.EXPECT().
		Write(gomock.Any()).
		DoAndReturn(func(data types.SymbolBars) (string, error) {
			return data.Symbol + ".json", nil
		}).
		Times(2)

	client := suite.newClient(ClientConfig{ChunkSize: 10})

	summary, err := client.DownloadBars(context.Background(), suite.barsRequest("AAPL", "BAD", "TSLA"))
	suite.Require().NoError(err)
	suite.Equal(2, summary.Succeeded)
	suite.Equal(1, summary.Failed)
	suite.Equal([]string{"BAD"}, summary.FailedSymbols)
}

func (suite *ClientTestSuite) TestDownloadBarsInvalidRequest() {
	client := suite.newClient(ClientConfig{ChunkSize: 10})

	_, err := client.DownloadBars(context.Background(), BarsRequest{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoSymbols))

	req := suite.barsRequest("AAPL")
	req.Start, req.End = req.End, req.Start

	_, err = client.DownloadBars(context.Background(), req)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDate))
}

func (suite *ClientTestSuite) TestDownloadBarsCancelledContext() {
	client := suite.newClient(ClientConfig{ChunkSize: 10, ChunkPause: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With a non-zero pause the limiter observes the cancelled context
	// before any fetch starts.
	suite.mockProvider.EXPECT().GetBars(gomock.Any(), gomock.Any()).Times(0)

	_, err := client.DownloadBars(ctx, suite.barsRequest("AAPL", "MSFT"))
	suite.Require().Error(err)
}

func (suite *ClientTestSuite) TestDownloadSnapshots() {
	suite.mockProvider.EXPECT().
		GetSnapshots(gomock.Any(), []string{"AAPL", "MSFT"}).
		Return([]types.SymbolBars{
			{Symbol: "AAPL", Bars: []types.Bar{{Close: 170}}},
		}, nil).
		Times(1)

	suite.mockWriter.EXPECT().
		Write(gomock.Any()).
		Return("AAPL.json", nil).
		Times(1)

	client := suite.newClient(ClientConfig{ChunkSize: 10})

	summary, err := client.DownloadSnapshots(context.Background(), []string{"AAPL", "MSFT"})
	suite.Require().NoError(err)
	suite.Equal(2, summary.Requested)
	suite.Equal(1, summary.Succeeded)
	suite.Equal(1, summary.Failed)
	suite.Equal([]string{"MSFT"}, summary.FailedSymbols)
}

func (suite *ClientTestSuite) TestDownloadSnapshotsUnsupported() {
	unsupported := errors.New(errors.ErrCodeSnapshotUnsupported, "not supported")

	suite.mockProvider.EXPECT().
		GetSnapshots(gomock.Any(), gomock.Any()).
		Return(nil, unsupported).
		Times(1)

	client := suite.newClient(ClientConfig{ChunkSize: 10})

	_, err := client.DownloadSnapshots(context.Background(), []string{"AAPL"})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSnapshotUnsupported))
}

func (suite *ClientTestSuite) TestDownloadSnapshotsChunkFailureContinues() {
	chunkErr := errors.New(errors.ErrCodeSnapshotFetchFailed, "vendor returned 429")

	suite.mockProvider.EXPECT().
		GetSnapshots(gomock.Any(), []string{"AAPL", "MSFT"}).
		Return(nil, chunkErr).
		Times(1)
	suite.mockProvider.EXPECT().
		GetSnapshots(gomock.Any(), []string{"TSLA"}).
		Return([]types.SymbolBars{{Symbol: "TSLA", Bars: []types.Bar{{Close: 200}}}}, nil).
		Times(1)

	suite.mockWriter.EXPECT().
		Write(gomock.Any()).
		Return("TSLA.json", nil).
		Times(1)

	client := suite.newClient(ClientConfig{ChunkSize: 2})

	summary, err := client.DownloadSnapshots(context.Background(), []string{"AAPL", "MSFT", "TSLA"})
	suite.Require().NoError(err)
	suite.Equal(1, summary.Succeeded)
	suite.Equal(2, summary.Failed)
	suite.Equal([]string{"AAPL", "MSFT"}, summary.FailedSymbols)
}

func TestChunkSymbols(t *testing.T) {
	tests := []struct {
		name     string
		symbols  []string
		size     int
		expected [][]string
	}{
		{
			name:     "even split",
			symbols:  []string{"A", "B", "C", "D"},
			size:     2,
			expected: [][]string{{"A", "B"}, {"C", "D"}},
		},
		{
			name:     "remainder",
			symbols:  []string{"A", "B", "C"},
			size:     2,
			expected: [][]string{{"A", "B"}, {"C"}},
		},
		{
			name:     "oversized chunk",
			symbols:  []string{"A"},
			size:     100,
			expected: [][]string{{"A"}},
		},
		{
			name:     "empty",
			symbols:  nil,
			size:     2,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkSymbols(tt.symbols, tt.size)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d chunks, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if len(got[i]) != len(tt.expected[i]) {
					t.Fatalf("chunk %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.expected[i][j] {
						t.Fatalf("chunk %d: expected %v, got %v", i, tt.expected[i], got[i])
					}
				}
			}
		})
	}
}
