package paper

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// HistoryStore keeps the completed trades of one run in an in-memory
// DuckDB table. It backs the ledger's duplicate-fill detection and can
// export the history to Parquet for reporting.
type HistoryStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewHistoryStore opens an in-memory trade history store.
func NewHistoryStore(log *logger.Logger) (*HistoryStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to open history store", err)
	}

	store := &HistoryStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

// Initialize creates the trades table.
func (s *HistoryStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			advice_id TEXT,
			action TEXT,
			cost DOUBLE,
			amount DOUBLE,
			price DOUBLE,
			asset DOUBLE,
			currency DOUBLE,
			balance DOUBLE,
			date TIMESTAMP,
			fee_percent DOUBLE,
			effective_price DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to create trades table", err)
	}

	return nil
}

// Contains reports whether a trade with the given id was already recorded.
func (s *HistoryStore) Contains(id string) (bool, error) {
	query, args, err := s.sq.Select("COUNT(*)").From("trades").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build lookup query", err)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to look up trade", err)
	}

	return count > 0, nil
}

// Record appends a completed trade. Recording the same trade id twice is
// a ledger-consistency error.
func (s *HistoryStore) Record(trade types.TradeCompleted) error {
	exists, err := s.Contains(trade.ID)
	if err != nil {
		return err
	}

	if exists {
		return errors.Newf(errors.ErrCodeDuplicateTrade, "trade already applied: %s", trade.ID)
	}

	query, args, err := s.sq.Insert("trades").
		Columns("id", "advice_id", "action", "cost", "amount", "price",
			"asset", "currency", "balance", "date", "fee_percent", "effective_price").
		Values(trade.ID, trade.AdviceID, string(trade.Action), trade.Cost, trade.Amount, trade.Price,
			trade.Portfolio.Asset, trade.Portfolio.Currency, trade.Balance, trade.Date,
			trade.FeePercent, trade.EffectivePrice).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert query", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to record trade", err)
	}

	return nil
}

// Trades returns all recorded trades in chronological order.
func (s *HistoryStore) Trades() ([]types.TradeCompleted, error) {
	query, args, err := s.sq.Select("id", "advice_id", "action", "cost", "amount", "price",
		"asset", "currency", "balance", "date", "fee_percent", "effective_price").
		From("trades").
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build select query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.TradeCompleted

	for rows.Next() {
		var trade types.TradeCompleted

		var action string

		if err := rows.Scan(&trade.ID, &trade.AdviceID, &action, &trade.Cost, &trade.Amount, &trade.Price,
			&trade.Portfolio.Asset, &trade.Portfolio.Currency, &trade.Balance, &trade.Date,
			&trade.FeePercent, &trade.EffectivePrice); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Action = types.Action(action)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trades", err)
	}

	return trades, nil
}

// Write exports the trade history to a Parquet file in the given folder.
func (s *HistoryStore) Write(folder string) error {
	target := filepath.Join(folder, "trades.parquet")

	query := fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, target)
	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to export trade history", err)
	}

	return nil
}

// Cleanup drops and recreates the trades table.
func (s *HistoryStore) Cleanup() error {
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS trades`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop trades table", err)
	}

	return s.Initialize()
}

// Close releases the underlying database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
