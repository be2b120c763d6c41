package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeden-/LLM-EA-sub001/internal/backtest"
	"github.com/jeden-/LLM-EA-sub001/internal/errors"
	"github.com/jeden-/LLM-EA-sub001/internal/marketdata"
	"github.com/jeden-/LLM-EA-sub001/internal/models"
	"github.com/jeden-/LLM-EA-sub001/internal/performance"
	"github.com/jeden-/LLM-EA-sub001/internal/store"
	"github.com/jeden-/LLM-EA-sub001/internal/strategy"
	"github.com/jeden-/LLM-EA-sub001/pkg/utils"
)

func newBacktestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run and inspect strategy backtests",
	}

	cmd.AddCommand(newBacktestRunCmd(app))
	cmd.AddCommand(newBacktestCompareCmd(app))
	cmd.AddCommand(newBacktestRunsCmd(app))
	cmd.AddCommand(newBacktestShowCmd(app))
	cmd.AddCommand(newBacktestStrategiesCmd())

	return cmd
}

func newBacktestRunCmd(app *App) *cobra.Command {
	var (
		symbol     string
		timeframe  string
		file       string
		strat      string
		balance    float64
		risk       float64
		startStr   string
		endStr     string
		sets       []string
		withTrades bool
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a strategy over a bar file",
		Long: `Simulate a strategy bar by bar over historical OHLCV data.

Bars are loaded from <data.dir>/<SYMBOL>_<TIMEFRAME>.csv unless --file
points at a specific CSV. Indicator columns and pattern flags are
computed before the run. Strategy options are passed with repeated
--set key=value flags.`,
		Example: `  llm-ea backtest run --symbol EURUSD --timeframe M5
  llm-ea backtest run --symbol EURUSD --strategy ma_cross --set fast_ma_period=5 --set slow_ma_period=20
  llm-ea backtest run --file ./bars.csv --start 2025-01-01 --end 2025-03-31 --trades`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := buildRequest(app, symbol, timeframe, strat, balance, risk, startStr, endStr, sets)
			if err != nil {
				return err
			}

			bars, err := loadAnnotatedBars(app, file, req)
			if err != nil {
				return err
			}

			engine := backtest.NewEngine(app.Logger)
			result := engine.Run(cmd.Context(), bars, req)

			if output.IsJSON() {
				return output.JSON(result)
			}
			if !result.Success {
				output.Error("Run failed [%s]: %s", result.Error.Code, result.Error.Message)
				return result.Error
			}

			printMetrics(output, req, result)
			if withTrades {
				output.Println()
				printTrades(output, result.Trades)
			}

			if !noSave && app.Store != nil {
				id, err := saveRun(cmd, app, req, result)
				if err != nil {
					output.Warning("Could not save run: %v", err)
				} else {
					output.Dim("Saved as run #%d", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "EURUSD", "instrument symbol")
	cmd.Flags().StringVar(&timeframe, "timeframe", "M5", "bar timeframe")
	cmd.Flags().StringVar(&file, "file", "", "bar CSV file (overrides data.dir lookup)")
	cmd.Flags().StringVar(&strat, "strategy", "", "strategy identifier (default from config)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "initial balance (default from config)")
	cmd.Flags().Float64Var(&risk, "risk", 0, "risk percent per trade (default from config)")
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "strategy option key=value (repeatable)")
	cmd.Flags().BoolVar(&withTrades, "trades", false, "print the trade ledger")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")

	return cmd
}

func newBacktestCompareCmd(app *App) *cobra.Command {
	var (
		symbol     string
		timeframe  string
		file       string
		strategies []string
		balance    float64
		risk       float64
		startStr   string
		endStr     string
		sets       []string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run several strategies over the same bars and compare",
		Long: `Run each strategy over the same annotated bar series on a worker
pool and print a comparison table. Runs are independent, so they
execute concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if len(strategies) == 0 {
				strategies = strategy.Names()
			}

			baseReq, err := buildRequest(app, symbol, timeframe, strategies[0], balance, risk, startStr, endStr, sets)
			if err != nil {
				return err
			}

			// Annotate once with the union of every strategy's columns.
			bars, err := loadAnnotatedBarsFor(app, file, baseReq, strategies)
			if err != nil {
				return err
			}

			engine := backtest.NewEngine(app.Logger)
			pool := performance.NewWorkerPool(workers)
			pool.Start()
			defer pool.Stop()

			type comparison struct {
				strategy string
				result   backtest.Result
			}
			results := make([]comparison, len(strategies))

			var wg sync.WaitGroup
			for i, name := range strategies {
				i, name := i, name
				req := baseReq
				req.Strategy = name
				wg.Add(1)
				if !pool.Submit(func() {
					defer wg.Done()
					results[i] = comparison{strategy: name, result: engine.Run(cmd.Context(), bars, req)}
				}) {
					wg.Done()
					return fmt.Errorf("worker pool rejected %s run", name)
				}
			}
			wg.Wait()

			if output.IsJSON() {
				out := make(map[string]backtest.Result, len(results))
				for _, c := range results {
					out[c.strategy] = c.result
				}
				return output.JSON(out)
			}

			output.Bold("Strategy Comparison: %s %s (%d bars)", baseReq.Symbol, baseReq.Timeframe, len(bars))
			output.Println()
			table := NewTable(output, "STRATEGY", "TRADES", "WIN RATE", "PROFIT FACTOR", "MAX DD", "SHARPE", "NET PROFIT")
			for _, c := range results {
				if !c.result.Success {
					table.AddRow(c.strategy, output.Red(string(c.result.Error.Code)), "-", "-", "-", "-", "-")
					continue
				}
				m := c.result.Metrics
				table.AddRow(
					c.strategy,
					strconv.Itoa(m.TotalTrades),
					fmt.Sprintf("%.1f%%", m.WinRate*100),
					FormatRatio(m.ProfitFactor),
					fmt.Sprintf("%.2f%%", m.MaxDrawdownPct),
					fmt.Sprintf("%.2f", m.SharpeRatio),
					output.FormatPnL(m.NetProfit),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "EURUSD", "instrument symbol")
	cmd.Flags().StringVar(&timeframe, "timeframe", "M5", "bar timeframe")
	cmd.Flags().StringVar(&file, "file", "", "bar CSV file (overrides data.dir lookup)")
	cmd.Flags().StringSliceVar(&strategies, "strategies", nil, "strategies to compare (default: all registered)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "initial balance (default from config)")
	cmd.Flags().Float64Var(&risk, "risk", 0, "risk percent per trade (default from config)")
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "strategy option key=value (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (default: number of CPUs)")

	return cmd
}

func newBacktestRunsCmd(app *App) *cobra.Command {
	var (
		symbol string
		strat  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved backtest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.ErrDatabaseError
			}

			records, err := app.Store.ListRuns(cmd.Context(), store.RunFilter{
				Symbol:   symbol,
				Strategy: strat,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No saved runs.")
				return nil
			}

			table := NewTable(output, "ID", "DATE", "SYMBOL", "TF", "STRATEGY", "TRADES", "WIN RATE", "NET PROFIT")
			for _, r := range records {
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					r.CreatedAt.Format("2006-01-02 15:04"),
					r.Symbol,
					r.Timeframe,
					r.Strategy,
					strconv.Itoa(r.Metrics.TotalTrades),
					fmt.Sprintf("%.1f%%", r.Metrics.WinRate*100),
					output.FormatPnL(r.Metrics.NetProfit),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&strat, "strategy", "", "filter by strategy")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

func newBacktestShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run with its trade ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.ErrDatabaseError
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			rec, err := app.Store.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(rec)
			}

			req := backtest.Request{
				Symbol:    rec.Symbol,
				Timeframe: rec.Timeframe,
				Strategy:  rec.Strategy,
			}
			printMetrics(output, req, backtest.Result{
				Success:   true,
				Truncated: rec.Truncated,
				Metrics:   rec.Metrics,
			})
			if len(rec.Trades) > 0 {
				output.Println()
				printTrades(output, rec.Trades)
			}
			return nil
		},
	}
	return cmd
}

func newBacktestStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered strategies",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			names := strategy.Names()
			if output.IsJSON() {
				output.JSON(names)
				return
			}
			for _, name := range names {
				output.Println(name)
			}
		},
	}
}

// buildRequest merges CLI flags with config defaults into a run request.
func buildRequest(app *App, symbol, timeframe, strat string, balance, risk float64, startStr, endStr string, sets []string) (backtest.Request, error) {
	if !utils.ValidTimeframe(timeframe) {
		return backtest.Request{}, fmt.Errorf("invalid timeframe %q (expected M1, M5, H1, D1, ...)", timeframe)
	}

	cfg := app.Config.Backtest
	if strat == "" {
		strat = cfg.Strategy
	}
	if balance <= 0 {
		balance = cfg.InitialBalance
	}
	if risk <= 0 {
		risk = cfg.RiskPct
	}

	params := strategy.Params{
		"risk_pct":              risk,
		"atr_stop_multiplier":   cfg.ATRStopMultiplier,
		"atr_target_multiplier": cfg.ATRTargetMultiplier,
	}
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		if !ok {
			return backtest.Request{}, fmt.Errorf("invalid --set %q, expected key=value", set)
		}
		params[key] = parseParamValue(value)
	}

	start, err := parseTimeFlag(startStr)
	if err != nil {
		return backtest.Request{}, err
	}
	end, err := parseTimeFlag(endStr)
	if err != nil {
		return backtest.Request{}, err
	}

	return backtest.Request{
		Symbol:         symbol,
		Timeframe:      timeframe,
		Start:          start,
		End:            end,
		InitialBalance: balance,
		Strategy:       strat,
		Params:         params,
	}, nil
}

// parseParamValue interprets a --set value as int, float, or bool before
// falling back to a string.
func parseParamValue(s string) interface{} {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

// loadAnnotatedBars loads and annotates the bar series for one strategy.
func loadAnnotatedBars(app *App, file string, req backtest.Request) (models.Series, error) {
	return loadAnnotatedBarsFor(app, file, req, []string{req.Strategy})
}

// loadAnnotatedBarsFor loads the bar series and annotates it with the
// union of indicator columns the given strategies need.
func loadAnnotatedBarsFor(app *App, file string, req backtest.Request, strategies []string) (models.Series, error) {
	path := file
	if path == "" {
		path = marketdata.FilePath(app.Config.Data.Dir, req.Symbol, req.Timeframe)
	}
	bars, err := marketdata.LoadCSV(path)
	if err != nil {
		return nil, err
	}

	smaSet := map[int]bool{}
	for _, name := range strategies {
		strat, err := strategy.Get(name)
		if err != nil {
			return nil, err
		}
		for _, col := range strat.RequiredColumns(req.Params) {
			var period int
			if _, err := fmt.Sscanf(col, "sma_%d", &period); err == nil && period > 0 {
				smaSet[period] = true
			}
		}
	}
	periods := make([]int, 0, len(smaSet))
	for p := range smaSet {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	bars = marketdata.Annotate(bars, marketdata.AnnotateOptions{
		SMAPeriods: periods,
		ATRPeriod:  req.Params.Int("atr_period", strategy.DefaultATRPeriod),
		VWAP:       true,
	})
	return marketdata.AnnotatePatterns(bars), nil
}

func saveRun(cmd *cobra.Command, app *App, req backtest.Request, result backtest.Result) (int64, error) {
	return app.Store.SaveRun(cmd.Context(), &store.RunRecord{
		Symbol:      req.Symbol,
		Timeframe:   req.Timeframe,
		Strategy:    req.Strategy,
		Start:       req.Start,
		End:         req.End,
		Balance:     req.InitialBalance,
		Params:      req.Params,
		Truncated:   result.Truncated,
		Metrics:     result.Metrics,
		Trades:      result.Trades,
		EquityCurve: result.EquityCurve,
	})
}

func printMetrics(output *Output, req backtest.Request, result backtest.Result) {
	m := result.Metrics
	output.Bold("Backtest: %s %s / %s", req.Symbol, req.Timeframe, req.Strategy)
	if result.Truncated {
		output.Warning("Run was truncated; results cover the bars processed before the cut.")
	}
	output.Printf("  Trades:          %d (%d won / %d lost)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	output.Printf("  Win Rate:        %.1f%%\n", m.WinRate*100)
	output.Printf("  Avg Win / Loss:  %s / %s\n", FormatCurrency(m.AverageWin), FormatCurrency(m.AverageLoss))
	output.Printf("  Profit Factor:   %s\n", FormatRatio(m.ProfitFactor))
	output.Printf("  Max Drawdown:    %.2f%%\n", m.MaxDrawdownPct)
	output.Printf("  Sharpe Ratio:    %.2f\n", m.SharpeRatio)
	output.Printf("  Net Profit:      %s\n", output.FormatPnL(m.NetProfit))
	output.Printf("  Final Balance:   %s\n", FormatCurrency(m.FinalBalance))
}

func printTrades(output *Output, trades []models.Trade) {
	table := NewTable(output, "ENTRY", "EXIT", "SIDE", "SETUP", "SIZE", "ENTRY PX", "EXIT PX", "P&L", "REASON")
	for _, t := range trades {
		table.AddRow(
			FormatTime(t.EntryTime),
			FormatTime(t.ExitTime),
			string(t.Side),
			TruncateString(t.Setup, 24),
			FormatSize(t.Size),
			FormatPrice(t.EntryPrice),
			FormatPrice(t.ExitPrice),
			output.FormatPnL(t.ProfitLoss),
			string(t.CloseReason),
		)
	}
	table.Render()
}
