package core

import (
	"strconv"
	"strings"
)

// Source record shapes, as delivered by the order, purchasing and voucher
// systems. Fields hold raw upstream values; the ledger normalizers decide
// what is usable.
type (
	SalesOrder struct {
		ID            int64        `json:"id"`
		OrderNumber   string       `json:"orderNumber,omitempty"`
		Status        string       `json:"status"`
		PaymentStatus string       `json:"paymentStatus,omitempty"`
		Total         Amount       `json:"total"`
		PaymentMethod PaymentField `json:"paymentMethod,omitempty"`
		StoreCode     string       `json:"storeCode"`
		CustomerName  string       `json:"customerName,omitempty"`
		SalesChannel  string       `json:"salesChannel,omitempty"`
		CreatedAt     string       `json:"createdAt,omitempty"`
		OrderedAt     string       `json:"orderedAt,omitempty"`
		UpdatedAt     string       `json:"updatedAt,omitempty"`
		PaidAt        string       `json:"paidAt,omitempty"`
	}

	PurchaseReceipt struct {
		ID            int64        `json:"id"`
		ReceiptNumber string       `json:"receiptNumber,omitempty"`
		IsPaid        bool         `json:"isPaid"`
		PaymentAmount Amount       `json:"paymentAmount"`
		PaymentMethod PaymentField `json:"paymentMethod,omitempty"`
		StoreCode     string       `json:"storeCode"`
		SupplierID    int64        `json:"supplierId,omitempty"`
		PurchaseDate  string       `json:"purchaseDate,omitempty"`
		CreatedAt     string       `json:"createdAt,omitempty"`
		UpdatedAt     string       `json:"updatedAt,omitempty"`
	}

	// Voucher is a manually entered income or expense record. Which of the
	// two it is depends on the collection it was read from.
	Voucher struct {
		ID            int64        `json:"id"`
		VoucherNumber string       `json:"voucherNumber,omitempty"`
		Date          string       `json:"date,omitempty"`
		Amount        Amount       `json:"amount"`
		Account       PaymentField `json:"account,omitempty"`
		Category      string       `json:"category,omitempty"`
		Recipient     string       `json:"recipient,omitempty"`
		StoreCode     string       `json:"storeCode,omitempty"`
		UpdatedAt     string       `json:"updatedAt,omitempty"`
	}
)

// Reference returns the human-facing order number, falling back to the id.
func (o SalesOrder) Reference() string {
	return reference(o.OrderNumber, o.ID)
}

// IsPaid reports whether either status field says the order is settled.
func (o SalesOrder) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(o.Status), "paid") ||
		strings.EqualFold(strings.TrimSpace(o.PaymentStatus), "paid")
}

func (r PurchaseReceipt) Reference() string {
	return reference(r.ReceiptNumber, r.ID)
}

func (v Voucher) Reference() string {
	return reference(v.VoucherNumber, v.ID)
}

// Key identifies the order for upserts: the id when set, otherwise the
// order number. It is empty when the record carries neither.
func (o SalesOrder) Key() string {
	return recordKey(o.OrderNumber, o.ID)
}

func (r PurchaseReceipt) Key() string {
	return recordKey(r.ReceiptNumber, r.ID)
}

func (v Voucher) Key() string {
	return recordKey(v.VoucherNumber, v.ID)
}

func recordKey(number string, id int64) string {
	if id != 0 {
		return "id:" + strconv.FormatInt(id, 10)
	}
	if n := strings.TrimSpace(number); n != "" {
		return "number:" + n
	}
	return ""
}

func reference(number string, id int64) string {
	if n := strings.TrimSpace(number); n != "" {
		return n
	}
	return strconv.FormatInt(id, 10)
}
