// Package storage provides the candle storage collaborator. The pipeline
// core only reads from it: candle streams for runs and date ranges for
// validation and reporting.
package storage

import (
	"database/sql"
	"iter"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// DefaultRangeGap is the largest gap between consecutive candles that is
// still considered part of the same date range.
const DefaultRangeGap = time.Hour

// CandleStore exposes stored historical candles to the pipeline.
type CandleStore interface {
	GetCandleDateranges() ([]types.DateRange, error)
	Count(start, end optional.Option[time.Time]) (int, error)
	ReadAll(start, end optional.Option[time.Time]) iter.Seq2[types.Tick, error]
	Close() error
}

// DuckDBCandleStore stores candles in a DuckDB database, either on disk or
// in memory.
type DuckDBCandleStore struct {
	db       *sql.DB
	logger   *logger.Logger
	sq       squirrel.StatementBuilderType
	rangeGap time.Duration
}

// NewDuckDBCandleStore opens (or creates) the candle database at path.
// Use ":memory:" for an in-memory store.
func NewDuckDBCandleStore(path string, log *logger.Logger) (*DuckDBCandleStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to open candle database", err)
	}

	store := &DuckDBCandleStore{
		db:       db,
		logger:   log,
		sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		rangeGap: DefaultRangeGap,
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *DuckDBCandleStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			pair TEXT,
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to create candles table", err)
	}

	return nil
}

// SetRangeGap overrides the gap used to split stored candles into date
// ranges.
func (s *DuckDBCandleStore) SetRangeGap(gap time.Duration) {
	if gap > 0 {
		s.rangeGap = gap
	}
}

// WriteCandles appends candles to the store. Used by data ingestion and
// tests; the pipeline core never calls this.
func (s *DuckDBCandleStore) WriteCandles(ticks []types.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	insert := s.sq.Insert("candles").
		Columns("pair", "time", "open", "high", "low", "close", "volume")

	for _, tick := range ticks {
		insert = insert.Values(tick.Pair, tick.Timestamp, tick.Open, tick.High, tick.Low, tick.Close, tick.Volume)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert query", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert candles", err)
	}

	return nil
}

// GetCandleDateranges returns the contiguous windows of stored candles in
// chronological order. Consecutive candles further apart than the range
// gap start a new window.
func (s *DuckDBCandleStore) GetCandleDateranges() ([]types.DateRange, error) {
	rows, err := s.db.Query(`SELECT time FROM candles ORDER BY time ASC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candle times", err)
	}
	defer rows.Close()

	var ranges []types.DateRange

	var current *types.DateRange

	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle time", err)
		}

		if current == nil || ts.Sub(current.End) > s.rangeGap {
			if current != nil {
				ranges = append(ranges, *current)
			}

			current = &types.DateRange{Start: ts, End: ts}

			continue
		}

		current.End = ts
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candle times", err)
	}

	if current != nil {
		ranges = append(ranges, *current)
	}

	return ranges, nil
}

// Count returns the number of candles in the given window.
func (s *DuckDBCandleStore) Count(start, end optional.Option[time.Time]) (int, error) {
	query := s.sq.Select("COUNT(*)").From("candles")

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := s.db.QueryRow(sqlQuery, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// ReadAll streams candles in chronological order as pipeline ticks.
func (s *DuckDBCandleStore) ReadAll(start, end optional.Option[time.Time]) iter.Seq2[types.Tick, error] {
	return func(yield func(types.Tick, error) bool) {
		query := s.sq.Select("pair", "time", "open", "high", "low", "close", "volume").
			From("candles").
			OrderBy("time ASC")

		if start.IsSome() {
			query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
		}

		if end.IsSome() {
			query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
		}

		sqlQuery, args, err := query.ToSql()
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build read query", err))

			return
		}

		rows, err := s.db.Query(sqlQuery, args...)
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var tick types.Tick

			tick.Kind = types.TickKindCandle

			var pair string
			if err := rows.Scan(&pair, &tick.Timestamp, &tick.Open, &tick.High, &tick.Low, &tick.Close, &tick.Volume); err != nil {
				yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err))

				return
			}

			tick.Pair = pair

			if !yield(tick, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candles", err))
		}
	}
}

// Close releases the underlying database handle.
func (s *DuckDBCandleStore) Close() error {
	if s.logger != nil {
		s.logger.Debug("Closing candle store", zap.Duration("range_gap", s.rangeGap))
	}

	return s.db.Close()
}

var _ CandleStore = (*DuckDBCandleStore)(nil)
