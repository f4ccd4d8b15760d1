package paper

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

type TriggerBookTestSuite struct {
	suite.Suite
	book *TriggerBook
}

func (s *TriggerBookTestSuite) SetupTest() {
	s.book = NewTriggerBook()
}

func (s *TriggerBookTestSuite) advice(id string, action types.Action) types.Advice {
	return types.Advice{
		ID:     id,
		Pair:   "BTC/USD",
		Action: action,
		Amount: optional.None[float64](),
		Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *TriggerBookTestSuite) TestCreate() {
	trigger := s.book.Create(s.advice("a1", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     90,
	})

	s.Equal(TriggerStateCreated, trigger.State)
	s.Equal("a1", trigger.AdviceID)
	s.NotEmpty(trigger.ID)

	found, err := s.book.Get(trigger.ID)
	s.Require().NoError(err)
	s.Same(trigger, found)
}

func (s *TriggerBookTestSuite) TestGetUnknown() {
	_, err := s.book.Get("missing")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeUnknownTrigger))
}

func (s *TriggerBookTestSuite) TestEvaluateFiresAtThreshold() {
	trigger := s.book.Create(s.advice("a1", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     90,
	})

	s.Empty(s.book.Evaluate(100))
	s.Empty(s.book.Evaluate(95))

	fired := s.book.Evaluate(89)
	s.Require().Len(fired, 1)
	s.Equal(trigger.ID, fired[0].ID)
	s.Equal(TriggerStateFired, fired[0].State)

	// fired triggers leave the active set and never fire again
	s.Empty(s.book.Evaluate(89))
	s.Empty(s.book.Open())
}

func (s *TriggerBookTestSuite) TestEvaluateInsertionOrder() {
	first := s.book.Create(s.advice("a1", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     95,
	})
	second := s.book.Create(s.advice("a2", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     98,
	})

	fired := s.book.Evaluate(90)
	s.Require().Len(fired, 2)
	s.Equal(first.ID, fired[0].ID)
	s.Equal(second.ID, fired[1].ID)
}

func (s *TriggerBookTestSuite) TestAbort() {
	trigger := s.book.Create(s.advice("a1", types.ActionSell), types.TriggerCondition{
		Direction: types.TriggerDirectionUp,
		Price:     120,
	})

	aborted, err := s.book.Abort(trigger.ID)
	s.Require().NoError(err)
	s.Equal(TriggerStateAborted, aborted.State)
	s.Empty(s.book.Open())

	_, err = s.book.Abort(trigger.ID)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeTriggerTerminal))
}

func (s *TriggerBookTestSuite) TestAbortFiredTrigger() {
	trigger := s.book.Create(s.advice("a1", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     90,
	})

	s.Require().Len(s.book.Evaluate(80), 1)

	_, err := s.book.Abort(trigger.ID)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeTriggerTerminal))
}

func (s *TriggerBookTestSuite) TestAbortWhere() {
	buy := s.book.Create(s.advice("a1", types.ActionBuy), types.TriggerCondition{
		Direction: types.TriggerDirectionDown,
		Price:     90,
	})
	sell := s.book.Create(s.advice("a2", types.ActionSell), types.TriggerCondition{
		Direction: types.TriggerDirectionUp,
		Price:     120,
	})

	aborted := s.book.AbortWhere(func(t *Trigger) bool {
		return t.Action == types.ActionBuy
	})

	s.Require().Len(aborted, 1)
	s.Equal(buy.ID, aborted[0].ID)
	s.Equal(TriggerStateAborted, aborted[0].State)

	open := s.book.Open()
	s.Require().Len(open, 1)
	s.Equal(sell.ID, open[0].ID)
}

func TestTriggerBookTestSuite(t *testing.T) {
	suite.Run(t, new(TriggerBookTestSuite))
}
