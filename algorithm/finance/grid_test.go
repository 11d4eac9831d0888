package finance

import (
	"testing"

	"github.com/wyfcoding/optionlab/algorithm/types"
)

func TestBuildPriceGridMatchesSerial(t *testing.T) {
	sizing := SizePositions(25000, atmYear.Spot, CallPrice(atmYear), types.DirectionLong)
	in := GridInput{Side: types.OptionSideCall, Market: atmYear, Sizing: sizing}
	axis := PriceAxis(atmYear, 4, 1000)

	grid := BuildPriceGrid(in, axis)
	if len(grid) != len(axis) {
		t.Fatalf("grid length = %d, want %d", len(grid), len(axis))
	}

	step := axis[1] - axis[0]
	for i, price := range axis {
		want := gridPoint(in, price, step)
		if grid[i] != want {
			t.Fatalf("point %d differs from serial sweep: %+v vs %+v", i, grid[i], want)
		}
		if i > 0 && grid[i].Price <= grid[i-1].Price {
			t.Fatalf("grid not ascending at %d", i)
		}
	}
}

func TestBuildPriceGridDegenerate(t *testing.T) {
	sizing := SizePositions(10000, otmCall.Spot, CallPrice(otmCall), types.DirectionLong)
	expired := otmCall
	expired.TimeToExpiry = 0
	in := GridInput{Side: types.OptionSideCall, Market: expired, Sizing: sizing}
	grid := BuildPriceGrid(in, PriceAxis(expired, 4, 151))

	if got := TotalProbability(grid); got != 1 {
		t.Fatalf("total probability = %v, want 1", got)
	}
	if got := grid[75].Probability; got != 1 {
		t.Errorf("mass at spot = %v, want 1", got)
	}
	if v, ok := ValueAtRisk(grid, LegStock, 0.95); !ok || !near(v, 0, 1e-6) {
		t.Errorf("stock VaR95 = %v, %v, want 0", v, ok)
	}
	if es, ok := ExpectedShortfall(grid, LegStock, 0.95); !ok || !near(es, 0, 1e-6) {
		t.Errorf("stock ES95 = %v, %v, want 0", es, ok)
	}
	if ev := ExpectedValue(grid, LegStock); !near(ev, 0, 1e-6) {
		t.Errorf("stock EV = %v, want 0", ev)
	}
	if v, _ := ValueAtRisk(grid, LegOption, 0.95); !near(v, -sizing.TotalPremiumPaid, 1e-6) {
		t.Errorf("option VaR95 = %v, want %v", v, -sizing.TotalPremiumPaid)
	}
}

func TestPriceAxis(t *testing.T) {
	axis := PriceAxis(atmYear, 2, 5)
	if len(axis) != 5 {
		t.Fatalf("len = %d", len(axis))
	}
	if !near(axis[0], PriceAtSigma(100, 1, 0, 0.2, -2), 1e-9) || !near(axis[4], PriceAtSigma(100, 1, 0, 0.2, 2), 1e-9) {
		t.Errorf("axis ends = (%v, %v)", axis[0], axis[4])
	}

	expired := atmYear
	expired.TimeToExpiry = 0
	axis = PriceAxis(expired, 4, 3)
	if axis[0] != 50 || axis[1] != 100 || axis[2] != 150 {
		t.Errorf("degenerate axis = %v", axis)
	}
	if PriceAxis(atmYear, 4, 1) != nil {
		t.Error("single point axis must be nil")
	}
}

func TestLegPL(t *testing.T) {
	long := PositionSizing{SharesOwned: 50, OptionShares: 200, TotalPremiumPaid: 500, Direction: types.DirectionLong}
	short := long
	short.Direction = types.DirectionShort

	if got := StockPL(110, 100, long); got != 500 {
		t.Errorf("long stock P&L = %v", got)
	}
	if got := StockPL(110, 100, short); got != -500 {
		t.Errorf("short stock P&L = %v", got)
	}
	if got := OptionPL(types.OptionSideCall, 110, 100, long); got != 1500 {
		t.Errorf("long call P&L = %v", got)
	}
	if got := OptionPL(types.OptionSideCall, 90, 100, long); got != -500 {
		t.Errorf("expired call P&L = %v", got)
	}
	if got := OptionPL(types.OptionSidePut, 90, 100, short); got != -1500 {
		t.Errorf("short put P&L = %v", got)
	}
}
