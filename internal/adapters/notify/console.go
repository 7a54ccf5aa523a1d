package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// table=true imprime la tabla completa; false, una línea compacta por ciclo.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyOpportunities imprime las oportunidades del ciclo.
func (c *Console) NotifyOpportunities(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no arbitrage opportunities\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}
	return nil
}

// NotifyTrade anuncia un trade recién ejecutado (o simulado).
func (c *Console) NotifyTrade(_ context.Context, trade domain.TradeRecord) {
	tag := "LIVE"
	if trade.Simulated {
		tag = "SIM"
	}
	fmt.Fprintf(c.out, "[%s] %s trade %s: %.2f shares @ %.4f+%.4f = $%.2f → pnl $%.2f (roi %.2f%%)\n",
		trade.Timestamp.Format("15:04:05"), tag,
		shortID(trade.MarketID),
		trade.Shares, trade.YesPrice, trade.NoPrice,
		trade.EntryCost, trade.ExpectedPnl, trade.ROI,
	)
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(opps []domain.Opportunity) {
	best := opps[0]
	for _, o := range opps[1:] {
		if o.ROIPercent > best.ROIPercent {
			best = o
		}
	}
	fmt.Fprintf(c.out, "[%s] %d opportunities | best %s cost %.4f roi %.2f%%\n",
		time.Now().Format("15:04:05"), len(opps),
		shortID(best.MarketID), best.Cost, best.ROIPercent,
	)
}

// printFull imprime la tabla de oportunidades ordenada por ROI.
func (c *Console) printFull(opps []domain.Opportunity) {
	sorted := make([]domain.Opportunity, len(opps))
	copy(sorted, opps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ROIPercent > sorted[j].ROIPercent
	})

	fmt.Fprintf(c.out, "\n[%s] %d arbitrage opportunities\n",
		time.Now().Format("15:04:05"), len(sorted))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "YES ask", "NO ask", "Cost", "ROI %", "Age")

	for i, opp := range sorted {
		table.Append(
			fmt.Sprintf("%d", i+1),
			shortID(opp.MarketID),
			fmt.Sprintf("%.4f", opp.YesPrice),
			fmt.Sprintf("%.4f", opp.NoPrice),
			fmt.Sprintf("%.4f", opp.Cost),
			fmt.Sprintf("%.2f", opp.ROIPercent),
			fmtAge(opp.Age(time.Now().UTC())),
		)
	}
	table.Render()
}

// PrintBacktest imprime el informe final de un backtest.
func (c *Console) PrintBacktest(result domain.BacktestResult) {
	fmt.Fprintf(c.out, "\n══ BACKTEST REPORT ═══════════════════════════════\n\n")

	status := "completed"
	if result.Cancelled {
		status = "cancelled (partial results)"
	}

	fmt.Fprintf(c.out, "  Status:        %s\n", status)
	fmt.Fprintf(c.out, "  Snapshots:     %d replayed, %d malformed\n",
		result.SnapshotsReplayed, result.SnapshotsMalformed)
	fmt.Fprintf(c.out, "  Detected:      %d opportunities\n", result.OpportunitiesDetected)
	fmt.Fprintf(c.out, "  Executed:      %d\n", result.OpportunitiesExecuted)
	fmt.Fprintf(c.out, "  Skipped:       %d cooldown, %d capital, %d unprofitable\n",
		result.SkippedCooldown, result.SkippedCapital, result.SkippedUnprofitable)
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  Capital:       $%.2f → $%.2f (peak $%.2f)\n",
		result.StartingCapital, result.EndingCapital, result.PeakCapital)
	fmt.Fprintf(c.out, "  Total PnL:     $%.2f over %d trades\n", result.TotalPnl, result.TotalTrades)
	fmt.Fprintf(c.out, "  Win rate:      %.1f%%  |  Avg ROI: %.2f%%  |  Max drawdown: %.2f%%\n",
		result.WinRate*100, result.AvgROI, result.MaxDrawdown*100)

	if len(result.DailyPnl) > 0 {
		days := make([]string, 0, len(result.DailyPnl))
		for d := range result.DailyPnl {
			days = append(days, d)
		}
		sort.Strings(days)

		fmt.Fprintln(c.out)
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Date", "PnL")
		for _, d := range days {
			tbl.Append(d, fmt.Sprintf("$%.2f", result.DailyPnl[d]))
		}
		tbl.Render()
	}

	if len(result.Trades) > 0 {
		fmt.Fprintf(c.out, "\n  Last trades:\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Time", "Market", "Shares", "Cost", "PnL", "ROI %")

		start := 0
		if len(result.Trades) > 10 {
			start = len(result.Trades) - 10
		}
		for _, t := range result.Trades[start:] {
			tbl.Append(
				t.Timestamp.Format("01-02 15:04:05"),
				shortID(t.MarketID),
				fmt.Sprintf("%.2f", t.Shares),
				fmt.Sprintf("$%.2f", t.EntryCost),
				fmt.Sprintf("$%.2f", t.ExpectedPnl),
				fmt.Sprintf("%.2f", t.ROI),
			)
		}
		tbl.Render()
	}

	fmt.Fprintln(c.out)
}

// shortID acorta un condition_id hex para que quepa en la tabla.
func shortID(id string) string {
	if len(id) > 14 {
		return id[:14] + "..."
	}
	return id
}

func fmtAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
