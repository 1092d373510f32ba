// Package engine drives the backtest replay loop: for every bar it
// runs matching, mark-to-market, risk, the strategy callback, and the
// equity snapshot in a fixed order that prevents look-ahead bias, and
// produces a BacktestResult once the feed is exhausted.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/api"
	"github.com/txf-quant/txfbt/internal/calendar"
	"github.com/txf-quant/txfbt/internal/commission"
	"github.com/txf-quant/txfbt/internal/config"
	"github.com/txf-quant/txfbt/internal/contract"
	"github.com/txf-quant/txfbt/internal/data"
	"github.com/txf-quant/txfbt/internal/events"
	"github.com/txf-quant/txfbt/internal/matching"
	"github.com/txf-quant/txfbt/internal/position"
	"github.com/txf-quant/txfbt/internal/risk"
	"github.com/txf-quant/txfbt/internal/risk/pretrade"
	"github.com/txf-quant/txfbt/internal/risk/realtime"
	"github.com/txf-quant/txfbt/internal/risk/stops"
	"github.com/txf-quant/txfbt/internal/strategy"
	"github.com/txf-quant/txfbt/pkg/types"
)

// BacktestResult is the full outcome of a completed replay.
type BacktestResult struct {
	EquityCurve     []types.EquityPoint
	TradeRecords    []types.TradeRecord
	FinalEquity     decimal.Decimal
	InitialCapital  decimal.Decimal
	TotalBars       int
	TotalTrades     int
	TotalCommission decimal.Decimal
	TotalTax        decimal.Decimal
}

// Engine owns the position manager, matching engine, risk manager,
// strategy context and clock, and drives them through the fixed
// per-bar protocol. It implements api.Provider so a dashboard server
// can observe a run in progress.
type Engine struct {
	cfg        config.Config
	symbol     string
	registry   *contract.Registry
	spec       types.ContractSpec
	commission *commission.Model

	matchingEngine *matching.Engine
	positionMgr    *position.Manager
	riskMgr        *risk.Manager
	strategyCtx    *strategy.Context
	strat          strategy.Strategy
	clock          *calendar.SimulatedClock
	bus            *events.Bus
	logger         *slog.Logger

	barIndex         int
	totalBars        int
	lastSession      types.SessionType
	haveSession      bool
	wasHalted        bool
	wasMarginWarning bool
	dailyBaseline    decimal.Decimal

	totalCommission decimal.Decimal
	totalTax        decimal.Decimal

	mu              sync.RWMutex
	progress        api.ProgressSnapshot
	result          *api.ResultSnapshot
	dashboardEvents chan api.DashboardEvent
}

var _ api.Provider = (*Engine)(nil)

// New wires a backtest engine from cfg, ready to run strat against a
// feed.
func New(cfg config.Config, strat strategy.Strategy, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := contract.NewRegistry()
	spec, err := registry.Get(cfg.Backtest.Symbol)
	if err != nil {
		return nil, fmt.Errorf("resolve contract spec for %s: %w", cfg.Backtest.Symbol, err)
	}

	commissionModel := commission.NewModel(
		decimal.NewFromFloat(cfg.Backtest.CommissionPerContract),
		decimal.NewFromFloat(cfg.Backtest.TaxRate),
	)

	matchingEngine := matching.NewEngine(registry, commissionModel, cfg.Backtest.SlippageTicks)
	positionMgr := position.NewManager(registry, decimal.NewFromFloat(cfg.Backtest.InitialCapital))

	riskCfg := risk.Config{
		Limits: pretrade.LimitsConfig{
			MaxPositionContracts: cfg.Risk.MaxPositionContracts,
			MaxTotalExposure:     decimal.NewFromFloat(cfg.Risk.MaxTotalExposure),
		},
		PreTrade: pretrade.Config{
			MaxDailyLoss: decimal.NewFromFloat(cfg.Risk.MaxDailyLoss),
		},
		Stops: stops.Config{
			StopLossPoints:     cfg.Risk.StopLossPoints,
			TakeProfitPoints:   cfg.Risk.TakeProfitPoints,
			TrailingStopPoints: cfg.Risk.TrailingStopPoints,
			TimeStopBars:       cfg.Risk.TimeStopBars,
		},
		Realtime: realtime.Config{
			MaxDrawdownPct: decimal.NewFromFloat(cfg.Risk.MaxDrawdownPct),
			MaxDailyLoss:   decimal.NewFromFloat(cfg.Risk.MaxDailyLoss),
			MarginWarnPct:  decimal.NewFromFloat(cfg.Risk.MarginWarnPct),
		},
	}

	e := &Engine{
		cfg:             cfg,
		symbol:          cfg.Backtest.Symbol,
		registry:        registry,
		spec:            spec,
		commission:      commissionModel,
		matchingEngine:  matchingEngine,
		positionMgr:     positionMgr,
		riskMgr:         risk.NewManager(riskCfg, logger),
		strat:           strat,
		clock:           calendar.NewSimulatedClock(time.Time{}),
		bus:             events.NewBus(),
		logger:          logger.With("component", "engine"),
		dashboardEvents: make(chan api.DashboardEvent, 256),
	}

	e.strategyCtx = strategy.NewContext(cfg.Backtest.HistoryCapacity, e.lookupPosition, e.submitStrategyOrder)
	matchingEngine.SetFillCallback(e.onFill)

	return e, nil
}

// Subscribe registers a handler for one of the engine's published
// event types (BAR, ORDER_FILLED, POSITION_CHANGED, ...).
func (e *Engine) Subscribe(t events.Type, h events.Handler) {
	e.bus.Subscribe(t, h)
}

// Run replays every bar the feed yields through the fixed per-bar
// protocol until the feed is exhausted or ctx is cancelled, then
// returns the completed result.
func (e *Engine) Run(ctx context.Context, feed data.Feed) (*BacktestResult, error) {
	e.totalBars = feed.Len()
	e.strat.OnInit(e.strategyCtx)

	bar, ok := feed.Next()
	for ok {
		select {
		case <-ctx.Done():
			e.strat.OnStop(e.strategyCtx)
			return nil, ctx.Err()
		default:
		}

		// One-bar lookahead solely to detect a session boundary so a
		// configured auto-close can act on this bar's own close
		// before the session ends, rather than one bar too late.
		next, hasNext := feed.Next()
		sessionEnding := hasNext && next.Session != bar.Session

		if err := e.processBar(bar); err != nil {
			return nil, err
		}

		if sessionEnding {
			if e.cfg.Risk.AutoCloseBeforeSessionEnd {
				e.forceCloseAllAtClose(bar)
			}
			e.bus.Publish(events.SessionEnd, bar)
			e.riskMgr.ResetSession()
			e.dailyBaseline = e.positionMgr.GetPortfolioState().RealizedPnL
		}

		bar, ok = next, hasNext
		e.barIndex++
	}

	e.strat.OnStop(e.strategyCtx)

	result := e.buildResult()
	e.publishResult(result)
	return result, nil
}

// processBar runs the seven-step per-bar protocol for a single bar.
func (e *Engine) processBar(bar types.Bar) error {
	if e.haveSession && bar.Session != e.lastSession {
		e.bus.Publish(events.SessionStart, bar)
	}
	e.lastSession, e.haveSession = bar.Session, true

	// Step 1: advance the clock and stamp the bar index the position
	// manager uses for entry/bars-held bookkeeping.
	e.clock.AdvanceTo(bar.Timestamp)
	e.positionMgr.SetBarIndex(e.barIndex)
	e.bus.Publish(events.Bar, bar)

	// Step 2: fill orders queued during the prior bar (or by risk on
	// the prior bar). This is the look-ahead barrier.
	if err := e.matchingEngine.OnBar(bar); err != nil {
		return err
	}

	// Step 3: mark the open position to this bar's close.
	e.positionMgr.MarkToMarket(bar.Symbol, bar.Close)

	// Step 4: risk manager evaluates stops / halt and may submit
	// forced close orders directly, bypassing pre-trade checking.
	portfolio := e.positionMgr.GetPortfolioState()
	positions := openPositionsSlice(portfolio)
	specs := map[string]types.ContractSpec{bar.Symbol: e.spec}
	forced := e.riskMgr.OnBar(portfolio.TotalEquity, portfolio.UsedMargin, positions, specs, bar)
	for _, order := range forced {
		if err := e.matchingEngine.SubmitOrder(*order); err != nil {
			e.logger.Error("forced order rejected", "order_id", order.ID, "error", err)
			continue
		}
		e.bus.Publish(events.OrderSubmitted, *order)
	}

	halted := e.riskMgr.IsTradingHalted()
	if halted && !e.wasHalted {
		e.bus.Publish(events.RiskBreach, bar)
		e.emitDashboardRiskBreach("trading halted")
	}
	e.wasHalted = halted

	marginWarning := e.riskMgr.MarginWarning()
	if marginWarning && !e.wasMarginWarning {
		e.bus.Publish(events.RiskBreach, bar)
		e.emitDashboardRiskBreach("maintenance margin warning")
	}
	e.wasMarginWarning = marginWarning

	// Step 5: make the bar visible to the strategy.
	e.strategyCtx.OnBar(bar)

	// Step 6: strategy callback. Orders it submits are gated by
	// pre-trade checking and can only fill starting next bar.
	e.strat.OnBar(e.strategyCtx, bar)

	// Step 7: equity snapshot.
	e.positionMgr.SnapshotEquity(bar.Timestamp)

	e.updateProgress(bar)
	return nil
}

// onFill applies a confirmed fill to the position manager, clears any
// trailing-stop state for a symbol that just flattened or reversed, and
// keeps the daily realized-P&L baseline the pre-trade checker reads up
// to date.
func (e *Engine) onFill(fill types.Fill) {
	prev, hadPrev := e.positionMgr.GetPosition(fill.Symbol)
	if err := e.positionMgr.ApplyFill(fill); err != nil {
		e.logger.Error("invariant violation applying fill", "order_id", fill.OrderID, "error", err)
		return
	}

	e.totalCommission = e.totalCommission.Add(fill.Commission)
	e.totalTax = e.totalTax.Add(fill.Tax)

	pos, hasPos := e.positionMgr.GetPosition(fill.Symbol)
	reversed := hadPrev && !prev.IsFlat() && hasPos && pos.Side != prev.Side
	if !hasPos || pos.IsFlat() || reversed {
		e.riskMgr.ClearSymbolStops(fill.Symbol)
	}

	realizedSinceReset := e.positionMgr.GetPortfolioState().RealizedPnL.Sub(e.dailyBaseline)
	e.riskMgr.UpdateDailyPnL(realizedSinceReset)

	e.bus.Publish(events.OrderFilled, fill)
	e.bus.Publish(events.PositionChanged, pos)
	e.emitDashboardFill(fill)
}

// submitStrategyOrder is the callback injected into the strategy
// context. It is the engine's only entry point for strategy-submitted
// orders, and every order passes through pre-trade checking before it
// reaches the matching queue.
func (e *Engine) submitStrategyOrder(order types.OrderRequest) error {
	in := e.buildCheckInput(order)
	if err := e.riskMgr.CheckPreTrade(order.ID, in); err != nil {
		e.bus.Publish(events.OrderRejected, struct {
			Order  types.OrderRequest
			Reason string
		}{order, err.Error()})
		e.emitDashboardOrderEvent(order, "REJECTED", err.Error())
		return err
	}

	if err := e.matchingEngine.SubmitOrder(order); err != nil {
		return err
	}
	e.bus.Publish(events.OrderSubmitted, order)
	e.emitDashboardOrderEvent(order, "SUBMITTED", "")
	return nil
}

// buildCheckInput assembles the pre-trade CheckInput for order: margin
// is only required when the order increases net exposure (§4.7.1), and
// resulting quantity/exposure are computed against the current
// position for the order's symbol.
func (e *Engine) buildCheckInput(order types.OrderRequest) pretrade.CheckInput {
	portfolio := e.positionMgr.GetPortfolioState()
	pos, hasPos := e.positionMgr.GetPosition(order.Symbol)

	reducing := hasPos && !pos.IsFlat() && order.Side != pos.Side

	requiredMargin := decimal.Zero
	if !reducing {
		requiredMargin = e.spec.InitialMargin.Mul(decimal.NewFromInt(order.Quantity))
	}

	var resultingQty int64
	switch {
	case !hasPos || pos.IsFlat():
		resultingQty = order.Quantity
	case order.Side == pos.Side:
		resultingQty = pos.Quantity + order.Quantity
	default:
		diff := pos.Quantity - order.Quantity
		if diff < 0 {
			diff = -diff
		}
		resultingQty = diff
	}

	price := order.Price
	if price.IsZero() {
		if last, ok := e.strategyCtx.Latest(order.Symbol); ok {
			price = last.Close
		}
	}
	resultingExposure := position.CalculateNotionalValue(price, resultingQty, e.spec.Multiplier)

	return pretrade.CheckInput{
		AvailableMargin:   portfolio.AvailableMargin,
		RequiredMargin:    requiredMargin,
		ResultingQuantity: resultingQty,
		ResultingExposure: resultingExposure,
		RealizedPnLToday:  portfolio.RealizedPnL.Sub(e.dailyBaseline),
	}
}

// forceCloseAllAtClose implements auto_close_before_session_end: every
// open position is liquidated at the current bar's own close price,
// via a synthetic fill applied directly to the position manager. This
// intentionally bypasses the matching queue's one-bar look-ahead
// barrier — it is a risk-driven same-bar liquidation ahead of a
// session boundary, not a strategy order that could peek at this bar's
// own close to decide a trade.
func (e *Engine) forceCloseAllAtClose(bar types.Bar) {
	portfolio := e.positionMgr.GetPortfolioState()
	for symbol, pos := range portfolio.Positions {
		if pos.IsFlat() {
			continue
		}
		spec, err := e.registry.Get(symbol)
		if err != nil {
			continue
		}
		notional := position.CalculateNotionalValue(bar.Close, pos.Quantity, spec.Multiplier)
		fill := types.Fill{
			OrderID:    fmt.Sprintf("session-close-%s-%d", symbol, bar.Timestamp.Unix()),
			Symbol:     symbol,
			Side:       pos.Side.Opposite(),
			Price:      bar.Close,
			Quantity:   pos.Quantity,
			Commission: e.commission.Commission(pos.Quantity),
			Tax:        e.commission.Tax(notional),
			Timestamp:  bar.Timestamp,
		}
		e.logger.Info("auto-closing position before session end", "symbol", symbol, "quantity", pos.Quantity)
		e.onFill(fill)
	}
}

func (e *Engine) lookupPosition(symbol string) (types.Position, bool) {
	return e.positionMgr.GetPosition(symbol)
}

func (e *Engine) buildResult() *BacktestResult {
	portfolio := e.positionMgr.GetPortfolioState()
	trades := e.positionMgr.TradeRecords()
	return &BacktestResult{
		EquityCurve:     e.positionMgr.EquityCurve(),
		TradeRecords:    trades,
		FinalEquity:     portfolio.TotalEquity,
		InitialCapital:  decimal.NewFromFloat(e.cfg.Backtest.InitialCapital),
		TotalBars:       e.totalBars,
		TotalTrades:     len(trades),
		TotalCommission: e.totalCommission,
		TotalTax:        e.totalTax,
	}
}

func openPositionsSlice(portfolio types.PortfolioState) []types.Position {
	out := make([]types.Position, 0, len(portfolio.Positions))
	for _, p := range portfolio.Positions {
		out = append(out, *p)
	}
	return out
}

// --- api.Provider implementation: dashboard-facing views -----------

func (e *Engine) updateProgress(bar types.Bar) {
	portfolio := e.positionMgr.GetPortfolioState()
	snap := api.ProgressSnapshot{
		Timestamp:     bar.Timestamp,
		BarIndex:      e.barIndex,
		TotalBars:     e.totalBars,
		Cash:          decToFloat(portfolio.Cash),
		Equity:        decToFloat(portfolio.TotalEquity),
		RealizedPnL:   decToFloat(portfolio.RealizedPnL),
		UnrealizedPnL: decToFloat(portfolio.UnrealizedPnL),
		UsedMargin:    decToFloat(portfolio.UsedMargin),
		Positions:     positionSnapshots(portfolio),
		Halted:        e.riskMgr.IsTradingHalted(),
	}

	e.mu.Lock()
	e.progress = snap
	e.mu.Unlock()

	e.sendDashboardEvent(api.DashboardEvent{Type: "progress", Timestamp: bar.Timestamp, Data: snap})
}

func (e *Engine) publishResult(result *BacktestResult) {
	snap := api.ResultSnapshot{
		FinalEquity:     decToFloat(result.FinalEquity),
		InitialCapital:  decToFloat(result.InitialCapital),
		TotalBars:       result.TotalBars,
		TotalTrades:     result.TotalTrades,
		TotalCommission: decToFloat(result.TotalCommission),
		TotalTax:        decToFloat(result.TotalTax),
		EquityCurve:     equityCurveView(result.EquityCurve),
		TradeRecords:    tradeRecordsView(result.TradeRecords),
	}

	e.mu.Lock()
	e.result = &snap
	e.mu.Unlock()

	e.sendDashboardEvent(api.DashboardEvent{Type: "result", Timestamp: e.clock.Now(), Data: snap})
	close(e.dashboardEvents)
}

func (e *Engine) emitDashboardFill(fill types.Fill) {
	evt := api.NewFillEvent(fill.OrderID, fill.Symbol, string(fill.Side), decToFloat(fill.Price), fill.Quantity, decToFloat(fill.Commission), decToFloat(fill.Tax))
	e.sendDashboardEvent(api.DashboardEvent{Type: "fill", Timestamp: fill.Timestamp, Data: evt})
}

func (e *Engine) emitDashboardOrderEvent(order types.OrderRequest, status, reason string) {
	evt := api.NewOrderEvent(order.ID, order.Symbol, status, reason)
	e.sendDashboardEvent(api.DashboardEvent{Type: "order", Timestamp: order.SubmitTime, Data: evt})
}

func (e *Engine) emitDashboardRiskBreach(reason string) {
	evt := api.NewRiskBreachEvent(reason)
	e.sendDashboardEvent(api.DashboardEvent{Type: "risk_breach", Timestamp: e.clock.Now(), Data: evt})
}

func (e *Engine) sendDashboardEvent(evt api.DashboardEvent) {
	select {
	case e.dashboardEvents <- evt:
	default:
		// Dashboard consumer can't keep up; drop rather than block
		// the simulation loop.
	}
}

// Progress returns the most recently snapshotted per-bar progress.
func (e *Engine) Progress() api.ProgressSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progress
}

// Result returns the finished run's result view, or false if the run
// hasn't completed yet.
func (e *Engine) Result() (api.ResultSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.result == nil {
		return api.ResultSnapshot{}, false
	}
	return *e.result, true
}

// DashboardEvents returns the channel the dashboard server drains to
// broadcast events to websocket clients. Closed once the run
// completes.
func (e *Engine) DashboardEvents() <-chan api.DashboardEvent {
	return e.dashboardEvents
}

func positionSnapshots(portfolio types.PortfolioState) []api.PositionSnapshot {
	out := make([]api.PositionSnapshot, 0, len(portfolio.Positions))
	for _, p := range portfolio.Positions {
		if p.IsFlat() {
			continue
		}
		out = append(out, api.PositionSnapshot{
			Symbol:         p.Symbol,
			Side:           string(p.Side),
			Quantity:       p.Quantity,
			AvgPrice:       decToFloat(p.AvgPrice),
			UnrealizedPnL:  decToFloat(p.UnrealizedPnL),
			MarginRequired: decToFloat(p.MarginRequired),
		})
	}
	return out
}

func equityCurveView(points []types.EquityPoint) []api.EquityPointView {
	out := make([]api.EquityPointView, len(points))
	for i, p := range points {
		out[i] = api.EquityPointView{Timestamp: p.Timestamp, Equity: decToFloat(p.Equity)}
	}
	return out
}

func tradeRecordsView(records []types.TradeRecord) []api.TradeRecordView {
	out := make([]api.TradeRecordView, len(records))
	for i, r := range records {
		out[i] = api.TradeRecordView{
			Symbol:     r.Symbol,
			Side:       string(r.Side),
			EntryPrice: decToFloat(r.EntryPrice),
			ExitPrice:  decToFloat(r.ExitPrice),
			Quantity:   r.Quantity,
			EntryTime:  r.EntryTime,
			ExitTime:   r.ExitTime,
			PnL:        decToFloat(r.PnL),
			Commission: decToFloat(r.Commission),
			Tax:        decToFloat(r.Tax),
			BarsHeld:   r.BarsHeld,
		}
	}
	return out
}

func decToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
