package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeBarsFetchFailed, "no bars for symbol %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeBarsFetchFailed, err.Code)
	suite.Equal("no bars for symbol AAPL", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeActivityFetchFailed, cause, "failed to page activities")
	suite.NotNil(err)
	suite.Equal(ErrCodeActivityFetchFailed, err.Code)
	suite.Equal("failed to page activities", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeActivityParseFailed, cause, "bad fill record for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeActivityParseFailed, err.Code)
	suite.Equal("bad fill record for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoSymbols, cause, "no symbols")
	suite.Equal("[200] no symbols: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoSymbols, cause, "no symbols")
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeMalformedEvent, "non-positive quantity")
	suite.Equal(ErrCodeMalformedEvent, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeMalformedEvent, "non-positive quantity")
	err := Wrap(ErrCodeActivityParseFailed, cause, "bad fill record")
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeActivityParseFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrap() {
	inner := New(ErrCodeMalformedEvent, "non-positive quantity")
	err := fmt.Errorf("reconstruct AAPL: %w", inner)
	suite.Equal(ErrCodeMalformedEvent, GetCode(err))
	suite.True(HasCode(err, ErrCodeMalformedEvent))
}

func (suite *ErrorTestSuite) TestHasCodeMismatch() {
	err := New(ErrCodeMalformedEvent, "non-positive quantity")
	suite.False(HasCode(err, ErrCodeActivityParseFailed))
}
