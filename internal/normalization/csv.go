package normalization

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"clmm-backtest/internal/domain"
)

// ErrMalformedCSV is returned for unreadable rows or missing columns.
var ErrMalformedCSV = errors.New("malformed csv")

// ParsePriceCSV reads a price file with a header row.
// Required columns: price and one of timestamp_ms or time (RFC 3339).
// Rows are returned sorted by timestamp.
func ParsePriceCSV(r io.Reader, poolID string) ([]*domain.PricePoint, error) {
	rows, cols, err := readCSV(r, "price")
	if err != nil {
		return nil, err
	}

	points := make([]*domain.PricePoint, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		ts, err := cols.timestamp(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		price, err := cols.float(row, "price")
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		points = append(points, &domain.PricePoint{
			PoolID:      poolID,
			TimestampMs: ts,
			Price:       price,
		})
	}

	SortPrices(points)
	return points, nil
}

// ParseSwapCSV reads a swap file with a header row.
// Required columns: tx_hash, log_index, tick, direction, amount_in,
// virtual_liquidity and one of timestamp_ms or time (RFC 3339).
// Every swap is validated; rows are returned in canonical swap order.
func ParseSwapCSV(r io.Reader, poolID string) ([]*domain.SwapEvent, error) {
	rows, cols, err := readCSV(r, "tx_hash", "log_index", "tick", "direction", "amount_in", "virtual_liquidity")
	if err != nil {
		return nil, err
	}

	swaps := make([]*domain.SwapEvent, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		s, err := cols.swap(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		s.PoolID = poolID
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		swaps = append(swaps, s)
	}

	SortSwaps(swaps)
	return swaps, nil
}

type columns map[string]int

func readCSV(r io.Reader, required ...string) ([][]string, columns, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedCSV)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, name)
		}
	}
	_, hasMs := cols["timestamp_ms"]
	_, hasTime := cols["time"]
	if !hasMs && !hasTime {
		return nil, nil, fmt.Errorf("%w: missing column %q or %q", ErrMalformedCSV, "timestamp_ms", "time")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	return rows, cols, nil
}

func (c columns) field(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) timestamp(row []string) (int64, error) {
	if _, ok := c["timestamp_ms"]; ok {
		v, err := strconv.ParseInt(c.field(row, "timestamp_ms"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp_ms: %v", err)
		}
		return v, nil
	}
	t, err := time.Parse(time.RFC3339, c.field(row, "time"))
	if err != nil {
		return 0, fmt.Errorf("time: %v", err)
	}
	return t.UnixMilli(), nil
}

func (c columns) float(row []string, name string) (float64, error) {
	v, err := strconv.ParseFloat(c.field(row, name), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return v, nil
}

func (c columns) int(row []string, name string) (int, error) {
	v, err := strconv.Atoi(c.field(row, name))
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return v, nil
}

func (c columns) swap(row []string) (*domain.SwapEvent, error) {
	ts, err := c.timestamp(row)
	if err != nil {
		return nil, err
	}
	logIndex, err := c.int(row, "log_index")
	if err != nil {
		return nil, err
	}
	tick, err := c.int(row, "tick")
	if err != nil {
		return nil, err
	}
	amountIn, err := c.float(row, "amount_in")
	if err != nil {
		return nil, err
	}
	virtual, err := c.float(row, "virtual_liquidity")
	if err != nil {
		return nil, err
	}
	return &domain.SwapEvent{
		TxHash:           c.field(row, "tx_hash"),
		LogIndex:         logIndex,
		TimestampMs:      ts,
		Tick:             tick,
		Direction:        domain.Direction(strings.ToLower(c.field(row, "direction"))),
		AmountIn:         amountIn,
		VirtualLiquidity: virtual,
	}, nil
}
