package lookup

import (
	"testing"

	"clmm-backtest/internal/domain"
)

func TestPriceAt_EmptySlice(t *testing.T) {
	_, err := PriceAt(1000, nil)
	if err != ErrNoPriceData {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}

	_, err = PriceAt(1000, []domain.PricePoint{})
	if err != ErrNoPriceData {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}

func TestPriceAt_ExactMatch(t *testing.T) {
	prices := []domain.PricePoint{
		{TimestampMs: 1000, Price: 1.0},
		{TimestampMs: 2000, Price: 2.0},
		{TimestampMs: 3000, Price: 3.0},
	}

	price, err := PriceAt(2000, prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 2.0 {
		t.Errorf("expected 2.0, got %f", price)
	}
}

func TestPriceAt_BetweenPoints(t *testing.T) {
	prices := []domain.PricePoint{
		{TimestampMs: 1000, Price: 1.0},
		{TimestampMs: 2000, Price: 2.0},
	}

	price, _ := PriceAt(1500, prices)
	if price != 1.0 {
		t.Errorf("expected 1.0, got %f", price)
	}

	price, _ = PriceAt(9000, prices)
	if price != 2.0 {
		t.Errorf("expected 2.0 after last point, got %f", price)
	}
}

func TestPriceAt_BeforeFirst(t *testing.T) {
	prices := []domain.PricePoint{{TimestampMs: 1000, Price: 1.5}}

	price, err := PriceAt(10, prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 1.5 {
		t.Errorf("expected first price 1.5, got %f", price)
	}
}

func TestReturnsBefore_Strict(t *testing.T) {
	returns := []domain.ReturnPoint{
		{TimestampMs: 1000, Return: 0.1},
		{TimestampMs: 2000, Return: 0.2},
		{TimestampMs: 3000, Return: 0.3},
	}

	got := ReturnsBefore(2000, returns)
	if len(got) != 1 || got[0] != 0.1 {
		t.Errorf("expected [0.1], got %v", got)
	}

	if got := ReturnsBefore(1000, returns); len(got) != 0 {
		t.Errorf("expected no returns at first timestamp, got %v", got)
	}

	if got := ReturnsBefore(5000, returns); len(got) != 3 {
		t.Errorf("expected all returns, got %v", got)
	}
}

func TestSwapWindow_OpenClosed(t *testing.T) {
	swaps := []domain.SwapEvent{
		{TxHash: "a", TimestampMs: 1000},
		{TxHash: "b", TimestampMs: 2000},
		{TxHash: "c", TimestampMs: 2000},
		{TxHash: "d", TimestampMs: 3000},
	}

	got := SwapWindow(swaps, 1000, 2000)
	if len(got) != 2 || got[0].TxHash != "b" || got[1].TxHash != "c" {
		t.Errorf("expected [b c], got %v", got)
	}

	got = SwapWindow(swaps, 0, 1000)
	if len(got) != 1 || got[0].TxHash != "a" {
		t.Errorf("expected [a], got %v", got)
	}

	if got := SwapWindow(swaps, 3000, 4000); got != nil {
		t.Errorf("expected empty window, got %v", got)
	}

	if got := SwapWindow(nil, 0, 1000); got != nil {
		t.Errorf("expected nil for no swaps, got %v", got)
	}
}
