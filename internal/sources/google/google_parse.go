package google

import (
	"fmt"
	"strconv"
	"strings"

	"cashbook/internal/core"
)

// header maps lower-cased column names to their index.
type header map[string]int

func newHeader(row []any) header {
	h := make(header, len(row))
	for i, v := range row {
		name := strings.ToLower(cellString(v))
		if _, dup := h[name]; name != "" && !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[strings.ToLower(n)]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unexpected header: missing %s", strings.Join(missing, ","))
	}
	return nil
}

func (h header) get(row []any, name string) string {
	idx, ok := h[strings.ToLower(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return cellString(row[idx])
}

func (h header) int(row []any, name string) int64 {
	n, err := strconv.ParseInt(h.get(row, name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func cellBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "x", "paid":
		return true
	}
	return false
}

func emptyRow(row []any) bool {
	for _, v := range row {
		if cellString(v) != "" {
			return false
		}
	}
	return true
}

// parseOrders reads an orders tab. Only the id and status columns are
// mandatory; rows without an id are skipped.
func parseOrders(values [][]any) ([]core.SalesOrder, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	if err := h.require("id", "status"); err != nil {
		return nil, err
	}
	out := make([]core.SalesOrder, 0, len(values)-1)
	for _, row := range values[1:] {
		if emptyRow(row) {
			continue
		}
		id := h.int(row, "id")
		if id == 0 {
			continue
		}
		out = append(out, core.SalesOrder{
			ID:            id,
			OrderNumber:   h.get(row, "orderNumber"),
			Status:        h.get(row, "status"),
			PaymentStatus: h.get(row, "paymentStatus"),
			Total:         core.Amount(h.get(row, "total")),
			PaymentMethod: core.PaymentField(h.get(row, "paymentMethod")),
			StoreCode:     h.get(row, "storeCode"),
			CustomerName:  h.get(row, "customerName"),
			SalesChannel:  h.get(row, "salesChannel"),
			CreatedAt:     h.get(row, "createdAt"),
			OrderedAt:     h.get(row, "orderedAt"),
			UpdatedAt:     h.get(row, "updatedAt"),
			PaidAt:        h.get(row, "paidAt"),
		})
	}
	return out, nil
}

func parseReceipts(values [][]any) ([]core.PurchaseReceipt, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	if err := h.require("id", "isPaid"); err != nil {
		return nil, err
	}
	out := make([]core.PurchaseReceipt, 0, len(values)-1)
	for _, row := range values[1:] {
		if emptyRow(row) {
			continue
		}
		id := h.int(row, "id")
		if id == 0 {
			continue
		}
		out = append(out, core.PurchaseReceipt{
			ID:            id,
			ReceiptNumber: h.get(row, "receiptNumber"),
			IsPaid:        cellBool(h.get(row, "isPaid")),
			PaymentAmount: core.Amount(h.get(row, "paymentAmount")),
			PaymentMethod: core.PaymentField(h.get(row, "paymentMethod")),
			StoreCode:     h.get(row, "storeCode"),
			SupplierID:    h.int(row, "supplierId"),
			PurchaseDate:  h.get(row, "purchaseDate"),
			CreatedAt:     h.get(row, "createdAt"),
			UpdatedAt:     h.get(row, "updatedAt"),
		})
	}
	return out, nil
}

// parseVouchers reads the shared vouchers tab and keeps the rows whose kind
// column names the requested direction.
func parseVouchers(values [][]any, kind core.Kind) ([]core.Voucher, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	if err := h.require("id", "kind"); err != nil {
		return nil, err
	}
	out := make([]core.Voucher, 0, len(values)-1)
	for _, row := range values[1:] {
		if emptyRow(row) {
			continue
		}
		k, err := core.ParseKind(h.get(row, "kind"))
		if err != nil || k != kind {
			continue
		}
		id := h.int(row, "id")
		if id == 0 {
			continue
		}
		out = append(out, core.Voucher{
			ID:            id,
			VoucherNumber: h.get(row, "voucherNumber"),
			Date:          h.get(row, "date"),
			Amount:        core.Amount(h.get(row, "amount")),
			Account:       core.PaymentField(h.get(row, "account")),
			Category:      h.get(row, "category"),
			Recipient:     h.get(row, "recipient"),
			StoreCode:     h.get(row, "storeCode"),
			UpdatedAt:     h.get(row, "updatedAt"),
		})
	}
	return out, nil
}

// parseUseCreatedDate scans a key/value settings tab.
func parseUseCreatedDate(values [][]any) bool {
	for _, row := range values {
		if len(row) < 2 {
			continue
		}
		if strings.EqualFold(cellString(row[0]), "useCreatedDate") {
			return cellBool(cellString(row[1]))
		}
	}
	return false
}
