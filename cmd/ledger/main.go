// Command ledger prints a cash-book report for one window from the
// configured backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"cashbook/internal/backend"
	"cashbook/internal/cli"
	"cashbook/internal/core"
	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/services"
)

func main() {
	today := core.DateOf(time.Now())
	var (
		from    = flag.String("from", core.NewDate(today.Year(), int(today.Month()), 1).String(), "window start (YYYY-MM-DD)")
		to      = flag.String("to", today.String(), "window end (YYYY-MM-DD)")
		store   = flag.String("store", core.All, "store code filter")
		method  = flag.String("method", core.All, "payment method filter")
		vtype   = flag.String("type", core.All, "voucher type filter")
		text    = flag.String("q", "", "free text filter")
		asJSON  = flag.Bool("json", false, "print the report as JSON")
		timeout = flag.Duration("timeout", 30*time.Second, "time allowed for reading the sources")
	)
	flag.Parse()

	cli.LoadEnvFile()
	cfg, _ := cli.LoadAndValidateConfig()

	// stdout carries the report; logs go to stderr.
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)

	q, err := parseQuery(*from, *to, *store, *method, *vtype, *text)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger:", err)
		os.Exit(2)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Error closing backend", "error", err)
		}
	}()

	report, err := services.NewLedgerService(res.Backend, services.LedgerOptions{}, nil).Report(ctx, q)
	if err != nil {
		logger.Error("Failed to build ledger report", "error", err)
		os.Exit(1)
	}

	if *asJSON {
		err = writeJSON(os.Stdout, report)
	} else {
		err = writeTable(os.Stdout, report)
	}
	if err != nil {
		logger.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
}

func parseQuery(from, to, store, method, vtype, text string) (ledger.Query, error) {
	start, ok := core.ParseDate(from)
	if !ok {
		return ledger.Query{}, fmt.Errorf("-from %q: %w", from, core.ErrInvalidDate)
	}
	end, ok := core.ParseDate(to)
	if !ok {
		return ledger.Query{}, fmt.Errorf("-to %q: %w", to, core.ErrInvalidDate)
	}
	q := ledger.Query{
		Start:       start,
		End:         end,
		Store:       store,
		Method:      method,
		VoucherType: vtype,
		Text:        text,
	}.Normalize()
	return q, q.Validate()
}

func writeJSON(w io.Writer, r ledger.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeTable(w io.Writer, r ledger.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\t%s .. %s\n", r.Query.Start, r.Query.End)
	fmt.Fprintf(tw, "Store\t%s\n", r.Query.Store)
	fmt.Fprintf(tw, "Method\t%s\n\n", r.Query.Method)

	fmt.Fprintln(tw, "DATE\tID\tTYPE\tKIND\tAMOUNT\tBALANCE\tCATEGORY")
	for _, tx := range r.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Date, tx.ID, tx.VoucherType, tx.Kind,
			tx.Amount.StringFixed(0), tx.RunningBalance.StringFixed(0), tx.Category)
	}

	s := r.Summary
	fmt.Fprintf(tw, "\nOpening\t%s\n", s.OpeningBalance.StringFixed(0))
	fmt.Fprintf(tw, "Income\t%s\n", s.TotalIncome.StringFixed(0))
	fmt.Fprintf(tw, "Expense\t%s\n", s.TotalExpense.StringFixed(0))
	fmt.Fprintf(tw, "Closing\t%s\n", s.ClosingBalance.StringFixed(0))
	return tw.Flush()
}
