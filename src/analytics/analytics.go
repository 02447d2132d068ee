package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cce-cloud/src/models"
)

// -----------------------------------------------------------------------------
// Presentation-layer analytics
//
// Pure functions over a snapshot's history/trades. All of them are total:
// empty or sparse input yields zero values, never a panic. Nil optional
// numerics count as zero in arithmetic and render as "—" for display.
// -----------------------------------------------------------------------------

// Transition is a derived state change, recomputed from history on every
// render and never stored.
type Transition struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Timestamp      string  `json:"timestamp"`
	PortfolioValue float64 `json:"portfolioValue"`
}

// StateShare is one row of the state occupancy histogram.
type StateShare struct {
	State   string  `json:"state"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// -----------------------------------------------------------------------------

// ExtractTransitions scans history for points where current_state changes
// from the previously seen distinct state. Consecutive duplicates are
// skipped; entries with an empty state are ignored. The first observed
// state opens the scan but is not itself a transition.
func ExtractTransitions(history []models.MHistoryEntry) []Transition {
	transitions := []Transition{}
	lastState := ""

	for _, entry := range history {
		if entry.CurrentState == "" || entry.CurrentState == lastState {
			continue
		}
		if lastState != "" {
			transitions = append(transitions, Transition{
				From:           lastState,
				To:             entry.CurrentState,
				Timestamp:      entry.Timestamp,
				PortfolioValue: entry.PortfolioValue,
			})
		}
		lastState = entry.CurrentState
	}

	return transitions
}

// -----------------------------------------------------------------------------

// CountTransitions returns the number of distinct-state changes minus one
// for the initial state, floored at zero.
func CountTransitions(history []models.MHistoryEntry) int {
	count := 0
	lastState := ""

	for _, entry := range history {
		if entry.CurrentState != "" && entry.CurrentState != lastState {
			count++
			lastState = entry.CurrentState
		}
	}

	if count <= 1 {
		return 0
	}
	return count - 1
}

// -----------------------------------------------------------------------------

// StateDistribution counts history entries per state and returns shares
// sorted descending by count (state name ascending on ties, for stable
// output). Entries with an empty state are excluded from the denominator.
// Percentages are rounded to one decimal place.
func StateDistribution(history []models.MHistoryEntry) []StateShare {
	counts := make(map[string]int)
	total := 0

	for _, entry := range history {
		if entry.CurrentState == "" {
			continue
		}
		counts[entry.CurrentState]++
		total++
	}

	shares := make([]StateShare, 0, len(counts))
	for state, count := range counts {
		shares = append(shares, StateShare{
			State:   state,
			Count:   count,
			Percent: round1(float64(count) / float64(total) * 100),
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].State < shares[j].State
	})

	return shares
}

// -----------------------------------------------------------------------------

// TimeInMarket returns the fraction of history samples whose state belongs
// to the active set, as a percentage rounded to one decimal place.
func TimeInMarket(history []models.MHistoryEntry, activeStates []string) float64 {
	if len(history) == 0 {
		return 0
	}

	active := make(map[string]struct{}, len(activeStates))
	for _, s := range activeStates {
		active[s] = struct{}{}
	}

	inMarket := 0
	for _, entry := range history {
		if _, ok := active[entry.CurrentState]; ok {
			inMarket++
		}
	}

	return round1(float64(inMarket) / float64(len(history)) * 100)
}

// -----------------------------------------------------------------------------

// DaysRunning returns the whole days spanned between the first and last
// history entry. Unparseable timestamps yield zero.
func DaysRunning(history []models.MHistoryEntry) int {
	if len(history) < 2 {
		return 0
	}

	first, err1 := parseTimestamp(history[0].Timestamp)
	last, err2 := parseTimestamp(history[len(history)-1].Timestamp)
	if err1 != nil || err2 != nil {
		return 0
	}

	days := int(last.Sub(first).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// -----------------------------------------------------------------------------

// ExportCSV flattens history and trades into a two-section CSV: a history
// section, a blank-line gap, then a trades section. Empty input yields the
// headers alone.
func ExportCSV(snap models.MSnapshot) string {
	var sb strings.Builder

	sb.WriteString("Timestamp,State,Portfolio Value,BTC Price,Fear & Greed\n")
	for _, entry := range snap.History {
		sb.WriteString(fmt.Sprintf("%s,%s,%g,%g,%d\n",
			entry.Timestamp,
			entry.CurrentState,
			entry.PortfolioValue,
			floatOrZero(entry.BTCPrice),
			intOrZero(entry.FearGreed),
		))
	}

	sb.WriteString("\n\nTrades\n")
	sb.WriteString("Timestamp,Symbol,Side,Price,Value\n")
	for _, trade := range snap.Trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%g,%g\n",
			trade.Timestamp,
			trade.Symbol,
			trade.Side,
			trade.Price,
			trade.Value,
		))
	}

	return sb.String()
}

// -----------------------------------------------------------------------------
// Display helpers
// -----------------------------------------------------------------------------

// FormatAmount renders an optional trade amount, "—" when unknown.
func FormatAmount(amount *float64) string {
	if amount == nil {
		return "—"
	}
	return fmt.Sprintf("%.6f", *amount)
}

// FormatFearGreed renders an optional fear & greed index, "—" when unknown.
func FormatFearGreed(fg *int) string {
	if fg == nil {
		return "—"
	}
	return fmt.Sprintf("%d", *fg)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// parseTimestamp accepts the formats the producer is known to emit.
func parseTimestamp(ts string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", ts)
}
