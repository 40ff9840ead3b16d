package performance

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// computeMetrics aggregates a record set into summary statistics. Records
// are expected in tracking order; drawdown and streaks depend on it.
func computeMetrics(records []models.PerformanceRecord) models.PerformanceMetrics {
	var m models.PerformanceMetrics
	m.TotalSignals = len(records)

	var grossProfit, grossLoss, totalReturn float64
	var curWins, curLosses int
	equity := 0.0
	peak := 0.0

	for _, r := range records {
		if r.Outcome == models.OutcomePending {
			continue
		}
		m.Resolved++
		totalReturn += r.ActualReturn

		if r.Outcome == models.OutcomeWin {
			m.Wins++
			grossProfit += r.ActualReturn
			curWins++
			curLosses = 0
			if curWins > m.MaxConsecutive.Wins {
				m.MaxConsecutive.Wins = curWins
			}
		} else {
			m.Losses++
			grossLoss += math.Abs(r.ActualReturn)
			curLosses++
			curWins = 0
			if curLosses > m.MaxConsecutive.Losses {
				m.MaxConsecutive.Losses = curLosses
			}
		}

		// Drawdown over the cumulative return curve.
		equity += r.ActualReturn
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
	}

	if m.Resolved > 0 {
		m.WinRate = float64(m.Wins) / float64(m.Resolved) * 100
		m.AverageReturn = totalReturn / float64(m.Resolved)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else {
		// No losing trades yet; report gross profit to keep the value finite.
		m.ProfitFactor = grossProfit
	}
	return m
}
