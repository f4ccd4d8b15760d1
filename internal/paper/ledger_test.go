package paper

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

const (
	testPair           = types.Pair("BTC/USD")
	testFeePercent     = 1.0
	testInitialBalance = 1000.0
)

type LedgerTestSuite struct {
	suite.Suite
	broker  *broker.SimulatedBroker
	history *HistoryStore
	ledger  *Ledger
}

func (s *LedgerTestSuite) SetupTest() {
	log := logger.NewNopLogger()

	s.broker = broker.NewSimulatedBroker(testFeePercent, map[types.Pair]broker.Limits{
		testPair: {MinAmount: 0.001, MinPrice: 1, MinCost: 1},
	})
	s.Require().NoError(s.broker.LoadMarkets())

	history, err := NewHistoryStore(log)
	s.Require().NoError(err)
	s.history = history

	s.ledger = NewLedger(log, s.broker, testPair, testInitialBalance, history)
}

func (s *LedgerTestSuite) TearDownTest() {
	s.Require().NoError(s.history.Close())
}

func (s *LedgerTestSuite) fill(id string, action types.Action, price float64) types.TradeInitiated {
	return types.TradeInitiated{
		ID:       id,
		AdviceID: "advice-" + id,
		Pair:     testPair,
		Action:   action,
		Price:    price,
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *LedgerTestSuite) TestEffectivePrice() {
	// 1% fee raises the buy cost basis and lowers the sell proceeds
	s.InDelta(101.0, s.ledger.EffectivePrice(types.ActionBuy, 100), 1e-9)
	s.InDelta(99.0, s.ledger.EffectivePrice(types.ActionSell, 100), 1e-9)
}

func (s *LedgerTestSuite) TestMaxBuyAmount() {
	// balance / (1 + 0.01 + 0.05) / price
	s.InDelta(testInitialBalance/1.06/100, s.ledger.MaxBuyAmount(100), 1e-9)
	s.Zero(s.ledger.MaxBuyAmount(0))
}

func (s *LedgerTestSuite) TestApplyBuyWithAmount() {
	completed, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(5.0))
	s.Require().NoError(err)

	s.Equal("t1", completed.ID)
	s.InDelta(5.0, completed.Amount, 1e-9)
	s.InDelta(101.0, completed.EffectivePrice, 1e-9)
	s.InDelta(5.0, completed.Cost, 1e-9) // 5 * 100 * 1%
	s.InDelta(testInitialBalance-505, completed.Balance, 1e-9)
	s.InDelta(5.0, s.ledger.Portfolio().Asset, 1e-9)
	s.InDelta(495.0, s.ledger.Balance(), 1e-9)
}

func (s *LedgerTestSuite) TestApplyBuySizedFromBalance() {
	completed, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.None[float64]())
	s.Require().NoError(err)

	s.InDelta(testInitialBalance/1.06/100, completed.Amount, 1e-9)
	// the fee buffer keeps the balance strictly positive after the fill
	s.Greater(s.ledger.Balance(), 0.0)
}

func (s *LedgerTestSuite) TestApplySellClampedToHolding() {
	_, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(5.0))
	s.Require().NoError(err)

	completed, err := s.ledger.Apply(s.fill("t2", types.ActionSell, 110), optional.Some(50.0))
	s.Require().NoError(err)

	s.InDelta(5.0, completed.Amount, 1e-9)
	s.InDelta(0.0, s.ledger.Portfolio().Asset, 1e-9)
	// proceeds at the fee-reduced price: 5 * 110 * 0.99
	s.InDelta(495.0+5*110*0.99, s.ledger.Balance(), 1e-9)
}

func (s *LedgerTestSuite) TestApplySellWithoutHolding() {
	_, err := s.ledger.Apply(s.fill("t1", types.ActionSell, 100), optional.None[float64]())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidFill))
	s.InDelta(testInitialBalance, s.ledger.Balance(), 1e-9)
}

func (s *LedgerTestSuite) TestApplyDuplicateRejected() {
	_, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(5.0))
	s.Require().NoError(err)

	balanceBefore := s.ledger.Balance()
	assetBefore := s.ledger.Portfolio().Asset

	_, err = s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(5.0))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDuplicateTrade))

	s.InDelta(balanceBefore, s.ledger.Balance(), 1e-9)
	s.InDelta(assetBefore, s.ledger.Portfolio().Asset, 1e-9)

	trades, err := s.history.Trades()
	s.Require().NoError(err)
	s.Len(trades, 1)
}

func (s *LedgerTestSuite) TestApplyZeroPrice() {
	_, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 0), optional.Some(5.0))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidFill))
}

func (s *LedgerTestSuite) TestApplyBelowMinimumAmount() {
	_, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(0.0001))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeOrderOutOfLimits))
	s.InDelta(testInitialBalance, s.ledger.Balance(), 1e-9)
}

func (s *LedgerTestSuite) TestApplyWithoutLoadedMarkets() {
	unloaded := broker.NewSimulatedBroker(testFeePercent, map[types.Pair]broker.Limits{
		testPair: {MinAmount: 0.001},
	})
	ledger := NewLedger(logger.NewNopLogger(), unloaded, testPair, testInitialBalance, nil)

	_, err := ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(1.0))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeBrokerLimitsUndefined))
}

func (s *LedgerTestSuite) TestApplyRecordsHistory() {
	completed, err := s.ledger.Apply(s.fill("t1", types.ActionBuy, 100), optional.Some(2.0))
	s.Require().NoError(err)

	trades, err := s.history.Trades()
	s.Require().NoError(err)
	s.Require().Len(trades, 1)
	s.Equal(completed.ID, trades[0].ID)
	s.Equal(types.ActionBuy, trades[0].Action)
	s.InDelta(completed.EffectivePrice, trades[0].EffectivePrice, 1e-9)
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
