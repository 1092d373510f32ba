package stops

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/pkg/types"
)

func d(v string) decimal.Decimal {
	dec, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return dec
}

func ptr(v int64) *int64 { return &v }
func iptr(v int) *int    { return &v }

func longPos() types.Position {
	return types.Position{Symbol: "TXFG5", Side: types.Buy, Quantity: 1, AvgPrice: d("18000")}
}

func barAt(open, high, low, close string) types.Bar {
	return types.Bar{
		Symbol:    "TXFG5",
		Timestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
	}
}

func TestStopLossTriggersOnLongWhenLowBreaches(t *testing.T) {
	e := NewEngine(Config{StopLossPoints: ptr(50)})
	pos := longPos()
	bar := barAt("17990", "17995", "17940", "17945")

	order := e.OnBar(pos, types.ContractSpec{}, bar)
	if order == nil {
		t.Fatalf("expected stop-loss to trigger")
	}
	if order.Side != types.Sell || order.Quantity != 1 {
		t.Errorf("unexpected close order: %+v", order)
	}
}

func TestStopLossDoesNotTriggerWhenWithinRange(t *testing.T) {
	e := NewEngine(Config{StopLossPoints: ptr(50)})
	pos := longPos()
	bar := barAt("18000", "18010", "17960", "18005")

	if order := e.OnBar(pos, types.ContractSpec{}, bar); order != nil {
		t.Errorf("did not expect stop-loss to trigger, got %+v", order)
	}
}

func TestTakeProfitTriggersBeforeTrailingStop(t *testing.T) {
	e := NewEngine(Config{TakeProfitPoints: ptr(30), TrailingStopPoints: ptr(10)})
	pos := longPos()
	bar := barAt("18020", "18040", "18010", "18030")

	order := e.OnBar(pos, types.ContractSpec{}, bar)
	if order == nil || order.ID[:10] != "stop-TXFG5" {
		t.Fatalf("expected a close order, got %+v", order)
	}
	if !strings.Contains(order.ID, "take_profit") {
		t.Fatalf("expected take-profit to win over trailing stop, got %s", order.ID)
	}
}

func TestStopLossEvaluatedBeforeTakeProfit(t *testing.T) {
	// A bar whose range crosses both thresholds: stop-loss must win
	// because it is evaluated first.
	e := NewEngine(Config{StopLossPoints: ptr(20), TakeProfitPoints: ptr(20)})
	pos := longPos()
	bar := barAt("18000", "18025", "17975", "18000")

	order := e.OnBar(pos, types.ContractSpec{}, bar)
	if order == nil {
		t.Fatalf("expected a trigger")
	}
	if !strings.Contains(order.ID, "stop_loss") {
		t.Fatalf("expected stop-loss to win over take-profit, got %s", order.ID)
	}
}

func TestTrailingStopUpdatesExtremeBeforeComparison(t *testing.T) {
	e := NewEngine(Config{TrailingStopPoints: ptr(10)})
	pos := longPos()

	// Bar 1 sets a new high of 18020; trailing extreme becomes 18020
	// before the comparison, so the stop (18010) is checked against THIS
	// bar's low of 18009 and triggers on the same bar.
	bar1 := barAt("18010", "18020", "18009", "18015")
	if order := e.OnBar(pos, types.ContractSpec{}, bar1); order == nil {
		t.Fatalf("expected trailing stop to trigger on bar1 against the freshly updated extreme")
	}

	// Bar 2 drops to 18009, below 18020-10=18010: must trigger.
	bar2 := barAt("18015", "18016", "18009", "18010")
	order := e.OnBar(pos, types.ContractSpec{}, bar2)
	if order == nil {
		t.Fatalf("expected trailing stop to trigger on bar2")
	}
}

func TestTimeStopTriggersAfterNBars(t *testing.T) {
	e := NewEngine(Config{TimeStopBars: iptr(3)})
	pos := longPos()
	pos.BarsHeld = 3
	bar := barAt("18000", "18010", "17990", "18000")

	order := e.OnBar(pos, types.ContractSpec{}, bar)
	if order == nil {
		t.Fatalf("expected time stop to trigger at BarsHeld=3")
	}
}

func TestNoStopsConfiguredNeverTriggers(t *testing.T) {
	e := NewEngine(Config{})
	pos := longPos()
	bar := barAt("10000", "20000", "5000", "15000")

	if order := e.OnBar(pos, types.ContractSpec{}, bar); order != nil {
		t.Errorf("expected no trigger with empty config, got %+v", order)
	}
}

func TestResetClearsTrailingState(t *testing.T) {
	e := NewEngine(Config{TrailingStopPoints: ptr(10)})
	pos := longPos()
	_ = e.OnBar(pos, types.ContractSpec{}, barAt("18010", "18050", "18009", "18015"))

	e.Reset()

	if _, ok := e.trailingExtremes[pos.Symbol]; ok {
		t.Errorf("expected trailing state cleared after Reset")
	}
}
