package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mathquest/battle-api/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "foe not found",
			expected: "NOT_FOUND: foe not found",
		},
		{
			name:     "invalid argument error",
			code:     errors.CodeInvalidArgument,
			message:  "invalid input",
			expected: "INVALID_ARGUMENT: invalid input",
		},
		{
			name:     "failed precondition error",
			code:     errors.CodeFailedPrecondition,
			message:  "battle not in progress",
			expected: "FAILED_PRECONDITION: battle not in progress",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestErrorWithMeta() {
	err := errors.NotFound("character not found").
		WithMeta("owner_id", "owner-123").
		WithMeta("encounter_id", "enc-456")

	s.Assert().Equal("owner-123", err.Meta["owner_id"])
	s.Assert().Equal("enc-456", err.Meta["encounter_id"])
}

func (s *ErrorsTestSuite) TestWrapPreservesCode() {
	base := errors.NotFound("question not found")
	wrapped := errors.Wrap(base, "failed to load question pool")

	s.Assert().Equal(errors.CodeNotFound, wrapped.Code)
	s.Assert().True(errors.IsNotFound(wrapped))
	s.Assert().ErrorIs(wrapped, base)
}

func (s *ErrorsTestSuite) TestWrapPlainError() {
	base := fmt.Errorf("connection refused")
	wrapped := errors.Wrap(base, "failed to save inventory")

	s.Assert().Equal(errors.CodeInternal, wrapped.Code)
	s.Assert().Contains(wrapped.Error(), "connection refused")
}

func (s *ErrorsTestSuite) TestWrapNil() {
	s.Assert().Nil(errors.Wrap(nil, "no-op"))
}

func (s *ErrorsTestSuite) TestWrapWithCode() {
	base := fmt.Errorf("redis: nil")
	wrapped := errors.WrapWithCode(base, errors.CodeNotFound, "encounter not found")

	s.Assert().True(errors.IsNotFound(wrapped))
	s.Assert().ErrorIs(wrapped, base)
}

func (s *ErrorsTestSuite) TestGetCode() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("plain")))
	s.Assert().Equal(errors.CodeUnavailable, errors.GetCode(errors.Unavailable("storage down")))
}

func (s *ErrorsTestSuite) TestGetMessage() {
	s.Assert().Equal("", errors.GetMessage(nil))
	s.Assert().Equal("plain", errors.GetMessage(fmt.Errorf("plain")))
	s.Assert().Equal("foe not found", errors.GetMessage(errors.NotFound("foe not found")))
}
