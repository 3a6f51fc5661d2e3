package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cashbook/internal/core"
	"cashbook/internal/sources"
)

// Config names the spreadsheet and the tabs each collection is read from.
type Config struct {
	SpreadsheetID string
	OrdersSheet   string
	ReceiptsSheet string
	VouchersSheet string
	// SettingsSheet is optional; without it UseCreatedDate reports false.
	SettingsSheet string
}

// Client reads source records from a spreadsheet. Every tab carries a
// header row; columns are matched by header name, not position.
type Client struct {
	svc *gsheet.Service
	cfg Config
}

var _ sources.Backend = (*Client)(nil)

// New creates a read-only Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, cfg: cfg}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"component", "sheets",
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) readSheet(ctx context.Context, sheet string) ([][]any, error) {
	if c.svc == nil {
		return nil, sources.ErrNotConfigured
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, sheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return resp.Values, nil
}

func (c *Client) ListOrders(ctx context.Context, store string) ([]core.SalesOrder, error) {
	values, err := c.readSheet(ctx, c.cfg.OrdersSheet)
	if err != nil {
		return nil, err
	}
	orders, err := parseOrders(values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.cfg.OrdersSheet, err)
	}
	out := orders[:0]
	for _, o := range orders {
		if sources.MatchStore(store, o.StoreCode) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *Client) ListReceipts(ctx context.Context, store string) ([]core.PurchaseReceipt, error) {
	values, err := c.readSheet(ctx, c.cfg.ReceiptsSheet)
	if err != nil {
		return nil, err
	}
	receipts, err := parseReceipts(values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.cfg.ReceiptsSheet, err)
	}
	out := receipts[:0]
	for _, r := range receipts {
		if sources.MatchStore(store, r.StoreCode) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) ListVouchers(ctx context.Context, kind core.Kind) ([]core.Voucher, error) {
	values, err := c.readSheet(ctx, c.cfg.VouchersSheet)
	if err != nil {
		return nil, err
	}
	vouchers, err := parseVouchers(values, kind)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.cfg.VouchersSheet, err)
	}
	return vouchers, nil
}

func (c *Client) UseCreatedDate(ctx context.Context) (bool, error) {
	if strings.TrimSpace(c.cfg.SettingsSheet) == "" {
		return false, nil
	}
	values, err := c.readSheet(ctx, c.cfg.SettingsSheet)
	if err != nil {
		return false, err
	}
	return parseUseCreatedDate(values), nil
}
