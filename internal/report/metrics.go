// Package report computes performance statistics from a finished
// backtest and persists its results to disk.
package report

import (
	"math"

	"github.com/txf-quant/txfbt/pkg/types"
)

// DefaultBarsPerYear approximates 252 trading days at ~300 one-minute
// bars per day.
const DefaultBarsPerYear = 252 * 300

// DefaultRiskFreeRate is the annualized risk-free rate used for the
// Sharpe/Sortino calculations.
const DefaultRiskFreeRate = 0.02

// Metrics is the full set of performance statistics for a backtest
// run.
type Metrics struct {
	TotalReturn         float64
	TotalReturnPct      float64
	AnnualizedReturnPct float64

	MaxDrawdown           float64
	MaxDrawdownPct        float64
	AnnualizedVolatility  float64
	SharpeRatio           float64
	SortinoRatio          float64
	CalmarRatio           float64

	TotalTrades           int
	WinningTrades         int
	LosingTrades          int
	WinRate               float64
	ProfitFactor          float64
	AvgWin                float64
	AvgLoss               float64
	AvgPnLPerTrade        float64
	MaxConsecutiveWins    int
	MaxConsecutiveLosses  int

	AvgPnLPerContract float64
	TotalCommission   float64
	TotalTax          float64

	AvgBarsHeld float64
	TotalBars   int
}

// Options tunes the annualization assumptions used by Calculate.
type Options struct {
	BarsPerYear   int
	RiskFreeRate  float64
	TotalBars     int
}

// DefaultOptions returns the standard annualization assumptions.
func DefaultOptions() Options {
	return Options{BarsPerYear: DefaultBarsPerYear, RiskFreeRate: DefaultRiskFreeRate}
}

// Calculate derives performance metrics from an equity curve and the
// completed trade log. equityCurve and initialCapital are supplied in
// currency units (already converted from decimal by the caller, for
// example with EquityCurveFloats).
func Calculate(equityCurve []float64, trades []types.TradeRecord, initialCapital float64, totalCommission, totalTax float64, opts Options) Metrics {
	if opts.BarsPerYear <= 0 {
		opts.BarsPerYear = DefaultBarsPerYear
	}

	m := Metrics{TotalBars: opts.TotalBars, TotalCommission: totalCommission, TotalTax: totalTax}
	if len(equityCurve) == 0 {
		return m
	}

	finalEquity := equityCurve[len(equityCurve)-1]
	m.TotalReturn = finalEquity - initialCapital
	if initialCapital > 0 {
		m.TotalReturnPct = m.TotalReturn / initialCapital * 100
	}

	nBars := len(equityCurve)
	if nBars > 1 && opts.BarsPerYear > 0 && initialCapital > 0 {
		totalR := finalEquity / initialCapital
		years := float64(nBars) / float64(opts.BarsPerYear)
		if years > 0 && totalR > 0 {
			m.AnnualizedReturnPct = (math.Pow(totalR, 1.0/years) - 1.0) * 100
		}
	}

	maxDD, maxDDPct := maxDrawdown(equityCurve)
	m.MaxDrawdown = maxDD
	m.MaxDrawdownPct = maxDDPct * 100

	if nBars > 1 {
		returns := periodReturns(equityCurve)
		if len(returns) > 0 {
			vol := stddev(returns)
			annVol := vol * math.Sqrt(float64(opts.BarsPerYear))
			m.AnnualizedVolatility = annVol * 100

			meanR := mean(returns)
			rfPerBar := opts.RiskFreeRate / float64(opts.BarsPerYear)
			if vol > 0 {
				m.SharpeRatio = (meanR - rfPerBar) / vol * math.Sqrt(float64(opts.BarsPerYear))
			}

			downside := negativeOnly(returns)
			if len(downside) > 0 {
				downVol := stddev(downside)
				if downVol > 0 {
					m.SortinoRatio = (meanR - rfPerBar) / downVol * math.Sqrt(float64(opts.BarsPerYear))
				}
			}
		}
	}

	if maxDDPct > 0 {
		m.CalmarRatio = m.AnnualizedReturnPct / (maxDDPct * 100)
	}

	if len(trades) == 0 {
		return m
	}
	populateTradeStats(&m, trades)
	return m
}

func maxDrawdown(equity []float64) (maxDD, maxDDPct float64) {
	peak := equity[0]
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		dd := peak - e
		ddPct := 0.0
		if peak > 0 {
			ddPct = dd / peak
		}
		if dd > maxDD {
			maxDD = dd
		}
		if ddPct > maxDDPct {
			maxDDPct = ddPct
		}
	}
	return maxDD, maxDDPct
}

func periodReturns(equity []float64) []float64 {
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		r := (equity[i] - equity[i-1]) / equity[i-1]
		if !math.IsInf(r, 0) && !math.IsNaN(r) {
			returns = append(returns, r)
		}
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func negativeOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v < 0 {
			out = append(out, v)
		}
	}
	return out
}

func populateTradeStats(m *Metrics, trades []types.TradeRecord) {
	m.TotalTrades = len(trades)
	pnls := make([]float64, len(trades))
	var totalContracts int64
	var barsHeldSum float64
	var barsHeldCount int
	for i, t := range trades {
		f, _ := t.PnL.Float64()
		pnls[i] = f
		totalContracts += t.Quantity
		if t.BarsHeld > 0 {
			barsHeldSum += float64(t.BarsHeld)
			barsHeldCount++
		}
	}

	var winners, losers []float64
	for _, p := range pnls {
		if p > 0 {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}

	m.WinningTrades = len(winners)
	m.LosingTrades = len(losers)
	if len(pnls) > 0 {
		m.WinRate = float64(len(winners)) / float64(len(pnls)) * 100
	}
	m.AvgWin = mean(winners)
	m.AvgLoss = mean(losers)
	m.AvgPnLPerTrade = mean(pnls)

	grossProfit := sumOf(winners)
	grossLoss := math.Abs(sumOf(losers))
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else {
		m.ProfitFactor = math.Inf(1)
	}

	m.MaxConsecutiveWins = maxConsecutive(pnls, func(v float64) bool { return v > 0 })
	m.MaxConsecutiveLosses = maxConsecutive(pnls, func(v float64) bool { return v <= 0 })

	if totalContracts > 0 {
		m.AvgPnLPerContract = sumOf(pnls) / float64(totalContracts)
	}
	if barsHeldCount > 0 {
		m.AvgBarsHeld = barsHeldSum / float64(barsHeldCount)
	}
}

func sumOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

func maxConsecutive(values []float64, match func(float64) bool) int {
	var max, current int
	for _, v := range values {
		if match(v) {
			current++
			if current > max {
				max = current
			}
		} else {
			current = 0
		}
	}
	return max
}

// EquityCurveFloats converts a decimal equity curve to plain float64
// for statistics.
func EquityCurveFloats(points []types.EquityPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		f, _ := p.Equity.Float64()
		out[i] = f
	}
	return out
}
