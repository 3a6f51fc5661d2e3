package services

import (
	"context"
	"fmt"
	"log/slog"

	"cashbook/internal/amqp"
	"cashbook/internal/core"
	"cashbook/internal/sources"
)

// Publisher announces source changes to other processes.
type Publisher interface {
	PublishSourceChanged(ctx context.Context, source, storeCode string) error
}

// ImportResult counts the records written per source.
type ImportResult struct {
	Orders          int  `json:"orders"`
	Receipts        int  `json:"receipts"`
	IncomeVouchers  int  `json:"incomeVouchers"`
	ExpenseVouchers int  `json:"expenseVouchers"`
	Settings        bool `json:"settings"`
}

func (r ImportResult) Total() int {
	return r.Orders + r.Receipts + r.IncomeVouchers + r.ExpenseVouchers
}

// ImportService copies records from one backend into a writable store and
// publishes a change event for every source it touched.
type ImportService struct {
	target    sources.Writer
	publisher Publisher
}

// NewImportService builds the service. publisher may be nil, in which case
// no events are sent.
func NewImportService(target sources.Writer, publisher Publisher) *ImportService {
	return &ImportService{target: target, publisher: publisher}
}

// Import reads every record of src and upserts it into the target store.
// When copySettings is set the created-date setting is copied too.
func (s *ImportService) Import(ctx context.Context, src sources.Backend, copySettings bool) (ImportResult, error) {
	var res ImportResult

	orders, err := src.ListOrders(ctx, core.All)
	if err != nil {
		return res, fmt.Errorf("read orders: %w", err)
	}
	if res.Orders, err = s.target.UpsertOrders(ctx, orders); err != nil {
		return res, fmt.Errorf("save orders: %w", err)
	}

	receipts, err := src.ListReceipts(ctx, core.All)
	if err != nil {
		return res, fmt.Errorf("read receipts: %w", err)
	}
	if res.Receipts, err = s.target.UpsertReceipts(ctx, receipts); err != nil {
		return res, fmt.Errorf("save receipts: %w", err)
	}

	for _, kind := range []core.Kind{core.Income, core.Expense} {
		vouchers, err := src.ListVouchers(ctx, kind)
		if err != nil {
			return res, fmt.Errorf("read %s vouchers: %w", kind, err)
		}
		n, err := s.target.UpsertVouchers(ctx, kind, vouchers)
		if err != nil {
			return res, fmt.Errorf("save %s vouchers: %w", kind, err)
		}
		if kind == core.Income {
			res.IncomeVouchers = n
		} else {
			res.ExpenseVouchers = n
		}
	}

	if copySettings {
		v, err := src.UseCreatedDate(ctx)
		if err != nil {
			return res, fmt.Errorf("read settings: %w", err)
		}
		if err := s.target.SetUseCreatedDate(ctx, v); err != nil {
			return res, fmt.Errorf("save settings: %w", err)
		}
		res.Settings = true
	}

	slog.InfoContext(ctx, "Import finished",
		"component", "import",
		"orders", res.Orders,
		"receipts", res.Receipts,
		"income_vouchers", res.IncomeVouchers,
		"expense_vouchers", res.ExpenseVouchers,
		"settings", res.Settings)

	// Records are stored at this point; a failed publish only delays cache
	// invalidation until the TTL runs out.
	for _, ch := range res.changes() {
		if err := s.publish(ctx, ch); err != nil {
			slog.ErrorContext(ctx, "Failed to publish source changed message",
				"component", "import", "source", ch, "error", err)
		}
	}
	return res, nil
}

func (r ImportResult) changes() []string {
	var out []string
	if r.Orders > 0 {
		out = append(out, amqp.SourceOrders)
	}
	if r.Receipts > 0 {
		out = append(out, amqp.SourceReceipts)
	}
	if r.IncomeVouchers > 0 {
		out = append(out, amqp.SourceIncomeVouchers)
	}
	if r.ExpenseVouchers > 0 {
		out = append(out, amqp.SourceExpenseVouchers)
	}
	if r.Settings {
		out = append(out, amqp.SourceSettings)
	}
	return out
}

func (s *ImportService) publish(ctx context.Context, source string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message", "source", source)
		return nil
	}
	return s.publisher.PublishSourceChanged(ctx, source, "")
}
