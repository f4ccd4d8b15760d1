package pipeline

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

type CollisionTestSuite struct {
	suite.Suite
}

func TestCollisionSuite(t *testing.T) {
	suite.Run(t, new(CollisionTestSuite))
}

func emittingDescriptor(name string, events ...string) plugin.Descriptor {
	d := testDescriptor(name)
	d.EventsEmitted = events

	return d
}

func (suite *CollisionTestSuite) TestNoCollision() {
	descriptors := []plugin.Descriptor{
		emittingDescriptor("sma", "indicator-sma"),
		emittingDescriptor("strategy", types.EventAdvice),
		emittingDescriptor("analyzer"),
	}

	suite.NoError(ValidateEventCollisions(descriptors))
}

func (suite *CollisionTestSuite) TestSingleCollisionNamesBothPlugins() {
	descriptors := []plugin.Descriptor{
		emittingDescriptor("alpha", "tick"),
		emittingDescriptor("beta", "tick"),
	}

	err := ValidateEventCollisions(descriptors)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeEventCollision, errors.GetCode(err))
	suite.Contains(err.Error(), `"tick"`)
	suite.Contains(err.Error(), "alpha")
	suite.Contains(err.Error(), "beta")
}

func (suite *CollisionTestSuite) TestAllCollisionsReportedTogether() {
	descriptors := []plugin.Descriptor{
		emittingDescriptor("alpha", "tick", "pulse"),
		emittingDescriptor("beta", "tick"),
		emittingDescriptor("gamma", "pulse"),
	}

	err := ValidateEventCollisions(descriptors)
	suite.Require().Error(err)

	// one error covering every colliding event and plugin
	suite.Contains(err.Error(), `"tick"`)
	suite.Contains(err.Error(), `"pulse"`)
	suite.Contains(err.Error(), "alpha")
	suite.Contains(err.Error(), "beta")
	suite.Contains(err.Error(), "gamma")
}

func (suite *CollisionTestSuite) TestThreeWayCollision() {
	descriptors := []plugin.Descriptor{
		emittingDescriptor("alpha", "tick"),
		emittingDescriptor("beta", "tick"),
		emittingDescriptor("gamma", "tick"),
	}

	err := ValidateEventCollisions(descriptors)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "alpha")
	suite.Contains(err.Error(), "beta")
	suite.Contains(err.Error(), "gamma")
}
