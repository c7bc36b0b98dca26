package domain

// PricePoint is one observation of the pool price.
// Corresponds to price_timeseries table in ClickHouse.
type PricePoint struct {
	PoolID      string  // pool identifier
	TimestampMs int64   // Unix timestamp in milliseconds
	Price       float64 // token1 per token0
}

// ReturnPoint is a price observation with its return against the previous kept point.
type ReturnPoint struct {
	PoolID      string  // pool identifier
	TimestampMs int64   // Unix timestamp in milliseconds
	Price       float64 // token1 per token0
	Return      float64 // simple return vs. previous point
	LogReturn   float64 // log1p(Return)
}

// Returns extracts the simple return series.
func Returns(points []ReturnPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Return
	}
	return out
}
