package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"marketpulse/internal/bootstrap"
	"marketpulse/internal/services/report"
)

func main() {
	symbol := flag.String("symbol", "", "instrument symbol, e.g. AAPL or BTC-USD")
	hours := flag.Int("hours", 24, "lookback window in hours")
	contextOnly := flag.Bool("context-only", false, "print the market context without calling the AI provider")
	flag.Parse()

	if *symbol == "" || *hours <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := bootstrap.NewContainer()
	c.MustInitCore()

	code := run(c, *symbol, *hours, *contextOnly)
	c.Close()
	os.Exit(code)
}

func run(c *bootstrap.Container, symbol string, hours int, contextOnly bool) int {
	ctx, cancel := context.WithTimeout(c.Context, c.Config.AI.Timeout+30*time.Second)
	defer cancel()

	lookback := time.Duration(hours) * time.Hour

	if contextOnly {
		mc, ok, err := c.Services.Contexts.Build(ctx, symbol, lookback)
		if err != nil {
			c.Log.Errorf("build market context: %v", err)
			return 1
		}
		if !ok {
			fmt.Printf("No market data for %s in the last %d hours\n", symbol, hours)
			return 1
		}
		printJSON(mc)
		return 0
	}

	rep, err := c.Services.Reports.GenerateWindow(ctx, symbol, lookback)
	if err != nil {
		c.Log.Errorf("generate report: %v", err)
		return 1
	}

	if rep.Context != nil {
		printJSON(rep.Context)
		fmt.Println()
	}
	fmt.Println(rep.Content)

	if rep.Status != report.StatusOK {
		return 1
	}
	return 0
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
