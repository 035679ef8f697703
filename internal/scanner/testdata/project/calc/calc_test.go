package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CalculatorSuite struct {
	suite.Suite
	EdgeCases
}

type EdgeCases struct {
	suite.Suite
}

type helper struct {
	precision int
}

func (s *CalculatorSuite) SetupTest() {
	_ = helper{precision: 2}
}

func (s *CalculatorSuite) TestAdd() {
	assert.Equal(s.T(), 4, 2+2)
}

func (s *CalculatorSuite) TestSubtract() {
	assert.Equal(s.T(), 0, 2-2)
}

func (s *EdgeCases) TestOverflow() {
	assert.True(s.T(), int64(1)<<62 > 0)
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}
