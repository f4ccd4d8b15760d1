package plugin

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

type nopPlugin struct{}

func (nopPlugin) Configure(config string, services Services) error    { return nil }
func (nopPlugin) OnTick(tick types.Tick, emit EmitFunc) error         { return nil }
func (nopPlugin) OnEvent(name string, payload any, emit EmitFunc) error { return nil }
func (nopPlugin) Finalize(emit EmitFunc) error                        { return nil }

func nopFactory() Plugin { return nopPlugin{} }

func descriptor(name string, deps ...string) Descriptor {
	return Descriptor{
		Name:         name,
		Dependencies: deps,
		Modes:        []types.Mode{types.ModeBacktest},
		Factory:      nopFactory,
	}
}

type PluginTestSuite struct {
	suite.Suite
}

func TestPluginSuite(t *testing.T) {
	suite.Run(t, new(PluginTestSuite))
}

func (suite *PluginTestSuite) TestDescriptorValidate() {
	suite.NoError(descriptor("sma").Validate())

	err := Descriptor{Modes: []types.Mode{types.ModeBacktest}, Factory: nopFactory}.Validate()
	suite.Error(err)

	err = Descriptor{Name: "sma", Modes: []types.Mode{types.ModeBacktest}}.Validate()
	suite.Error(err)

	err = Descriptor{Name: "sma", Factory: nopFactory}.Validate()
	suite.Error(err)

	err = descriptor("sma", "sma").Validate()
	suite.Error(err)
}

func (suite *PluginTestSuite) TestDescriptorDeclarations() {
	d := descriptor("strategy")
	d.EventsEmitted = []string{types.EventAdvice}
	d.EventsHandled = []string{"indicator-sma"}

	suite.True(d.Emits(types.EventAdvice))
	suite.False(d.Emits("indicator-sma"))
	suite.True(d.Handles("indicator-sma"))
	suite.False(d.Handles(types.EventAdvice))
	suite.True(d.ActiveIn(types.ModeBacktest))
	suite.False(d.ActiveIn(types.ModeLive))
}

func (suite *PluginTestSuite) TestCheckAPIVersion() {
	d := descriptor("sma")
	suite.NoError(d.CheckAPIVersion(APIVersion))

	d.APIVersion = "^1.0"
	suite.NoError(d.CheckAPIVersion("1.0.0"))
	suite.NoError(d.CheckAPIVersion("1.4.2"))

	err := d.CheckAPIVersion("2.0.0")
	suite.Error(err)
	suite.Equal(errors.ErrCodeVersionMismatch, errors.GetCode(err))

	d.APIVersion = "not-a-constraint"
	err = d.CheckAPIVersion("1.0.0")
	suite.Error(err)
	suite.Equal(errors.ErrCodeVersionMismatch, errors.GetCode(err))
}

func (suite *PluginTestSuite) TestRegistryRegisterAndLookup() {
	registry := NewRegistry()
	suite.Require().NoError(registry.Register(descriptor("sma")))
	suite.Require().NoError(registry.Register(descriptor("strategy", "sma")))

	d, ok := registry.Get("sma")
	suite.True(ok)
	suite.Equal("sma", d.Name)

	_, ok = registry.Get("missing")
	suite.False(ok)

	list := registry.List()
	suite.Require().Len(list, 2)
	suite.Equal("sma", list[0].Name)
	suite.Equal("strategy", list[1].Name)
}

func (suite *PluginTestSuite) TestRegistryRejectsDuplicateName() {
	registry := NewRegistry()
	suite.Require().NoError(registry.Register(descriptor("sma")))

	err := registry.Register(descriptor("sma"))
	suite.Error(err)
	suite.Equal(errors.ErrCodeDuplicatePlugin, errors.GetCode(err))
}

func (suite *PluginTestSuite) TestRegistryForMode() {
	registry := NewRegistry()

	backtestOnly := descriptor("backtest-only")
	suite.Require().NoError(registry.Register(backtestOnly))

	liveOnly := descriptor("live-only")
	liveOnly.Modes = []types.Mode{types.ModeLive}
	suite.Require().NoError(registry.Register(liveOnly))

	both := descriptor("both")
	both.Modes = []types.Mode{types.ModeBacktest, types.ModeLive}
	suite.Require().NoError(registry.Register(both))

	backtest := registry.ForMode(types.ModeBacktest)
	suite.Require().Len(backtest, 2)
	suite.Equal("backtest-only", backtest[0].Name)
	suite.Equal("both", backtest[1].Name)

	live := registry.ForMode(types.ModeLive)
	suite.Require().Len(live, 2)
	suite.Equal("live-only", live[0].Name)
}

func (suite *PluginTestSuite) TestServicesCheck() {
	services := Services{
		Logger: logger.NewNopLogger(),
		Broker: broker.NewSimulatedBroker(0.25, nil),
	}

	suite.NoError(services.Check([]ServiceName{ServiceLogger, ServiceBroker}))

	err := services.Check([]ServiceName{ServiceCandleStore})
	suite.Error(err)
	suite.Equal(errors.ErrCodeUnknownService, errors.GetCode(err))

	err = services.Check([]ServiceName{"metrics"})
	suite.Error(err)
	suite.Equal(errors.ErrCodeUnknownService, errors.GetCode(err))
}

func (suite *PluginTestSuite) TestConfigSchemaJSON() {
	type smaConfig struct {
		Period int `json:"period" jsonschema:"minimum=1"`
	}

	d := descriptor("sma")
	d.ConfigPrototype = &smaConfig{}

	schema, err := d.ConfigSchemaJSON()
	suite.NoError(err)
	suite.Contains(schema, "period")

	noConfig := descriptor("bare")
	schema, err = noConfig.ConfigSchemaJSON()
	suite.NoError(err)
	suite.Equal("{}", schema)
}
