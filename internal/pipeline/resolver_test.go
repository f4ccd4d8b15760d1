package pipeline

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

type ResolverTestSuite struct {
	suite.Suite
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func testDescriptor(name string, deps ...string) plugin.Descriptor {
	return plugin.Descriptor{
		Name:         name,
		Dependencies: deps,
		Modes:        []types.Mode{types.ModeBacktest},
		Factory:      func() plugin.Plugin { return &fakePlugin{} },
	}
}

func (suite *ResolverTestSuite) TestDependenciesPrecedeDependents() {
	descriptors := []plugin.Descriptor{
		testDescriptor("analyzer", "paper-trader"),
		testDescriptor("paper-trader", "strategy"),
		testDescriptor("strategy", "sma", "ema"),
		testDescriptor("ema"),
		testDescriptor("sma"),
	}

	order, err := ResolveOrder(descriptors)
	suite.Require().NoError(err)
	suite.Require().Len(order, len(descriptors))

	position := make(map[string]int)
	for i, d := range order {
		position[d.Name] = i
	}

	for _, d := range descriptors {
		for _, dep := range d.Dependencies {
			suite.Less(position[dep], position[d.Name],
				"plugin %s must come after its dependency %s", d.Name, dep)
		}
	}
}

func (suite *ResolverTestSuite) TestDeterministicTieBreak() {
	descriptors := []plugin.Descriptor{
		testDescriptor("c"),
		testDescriptor("a"),
		testDescriptor("b"),
	}

	order, err := ResolveOrder(descriptors)
	suite.Require().NoError(err)

	// independent plugins keep declaration order
	suite.Equal([]string{"c", "a", "b"}, order.Names())

	// repeated resolution of the same input yields an identical sequence
	for range 10 {
		again, err := ResolveOrder(descriptors)
		suite.Require().NoError(err)
		suite.Equal(order.Names(), again.Names())
	}
}

func (suite *ResolverTestSuite) TestMissingDependency() {
	descriptors := []plugin.Descriptor{
		testDescriptor("strategy", "sma"),
	}

	_, err := ResolveOrder(descriptors)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeMissingDependency, errors.GetCode(err))
	suite.Contains(err.Error(), "strategy")
	suite.Contains(err.Error(), "sma")
}

func (suite *ResolverTestSuite) TestCycleDetection() {
	descriptors := []plugin.Descriptor{
		testDescriptor("a", "c"),
		testDescriptor("b", "a"),
		testDescriptor("c", "b"),
	}

	_, err := ResolveOrder(descriptors)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDependencyCycle, errors.GetCode(err))

	// the error lists every plugin in the cycle
	suite.Contains(err.Error(), "a")
	suite.Contains(err.Error(), "b")
	suite.Contains(err.Error(), "c")
}

func (suite *ResolverTestSuite) TestCycleWithIndependentPrefix() {
	descriptors := []plugin.Descriptor{
		testDescriptor("sma"),
		testDescriptor("a", "b"),
		testDescriptor("b", "a"),
	}

	_, err := ResolveOrder(descriptors)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDependencyCycle, errors.GetCode(err))
	suite.Contains(err.Error(), "a")
	suite.Contains(err.Error(), "b")
	suite.NotContains(err.Error(), "sma")
}

func (suite *ResolverTestSuite) TestCycleReportExcludesDownstreamDependents() {
	descriptors := []plugin.Descriptor{
		testDescriptor("analyzer", "b"),
		testDescriptor("b", "c"),
		testDescriptor("c", "b"),
	}

	_, err := ResolveOrder(descriptors)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDependencyCycle, errors.GetCode(err))

	// analyzer depends on the cycle but is not part of it
	suite.Contains(err.Error(), "b")
	suite.Contains(err.Error(), "c")
	suite.NotContains(err.Error(), "analyzer")
}

func (suite *ResolverTestSuite) TestEmptyInput() {
	order, err := ResolveOrder(nil)
	suite.NoError(err)
	suite.Empty(order)
}
