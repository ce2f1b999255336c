package service

import (
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Accounts posted to by inbound documents
const (
	AccountReceivable  = "Accounts Receivable"
	AccountSales       = "Sales"
	AccountSalesTax    = "Sales Tax Payable"
	AccountUndeposited = "Undeposited Funds"
)

// invoiceLedgerEntries posts the receivable against sales and tax. Debits
// equal credits: grand total = (grand total - tax) + tax.
func invoiceLedgerEntries(inv *entity.Invoice) []entity.LedgerEntry {
	party := inv.CustomerID
	entries := []entity.LedgerEntry{
		{
			VoucherType: entity.VoucherTypeInvoice,
			VoucherID:   inv.ID,
			Ledger:      entity.LedgerGeneral,
			Account:     AccountReceivable,
			PartyID:     &party,
			Debit:       inv.GrandTotal,
			Credit:      decimal.Zero,
			PostingDate: inv.PostingDate,
		},
		{
			VoucherType: entity.VoucherTypeInvoice,
			VoucherID:   inv.ID,
			Ledger:      entity.LedgerGeneral,
			Account:     AccountSales,
			Debit:       decimal.Zero,
			Credit:      inv.GrandTotal.Sub(inv.TaxTotal),
			PostingDate: inv.PostingDate,
		},
	}
	if inv.TaxTotal.IsPositive() {
		entries = append(entries, entity.LedgerEntry{
			VoucherType: entity.VoucherTypeInvoice,
			VoucherID:   inv.ID,
			Ledger:      entity.LedgerGeneral,
			Account:     AccountSalesTax,
			Debit:       decimal.Zero,
			Credit:      inv.TaxTotal,
			PostingDate: inv.PostingDate,
		})
	}
	return entries
}

// paymentLedgerEntries posts the received amount and one payment ledger
// line per invoice it settles
func paymentLedgerEntries(p *entity.Payment) []entity.LedgerEntry {
	party := p.CustomerID
	entries := []entity.LedgerEntry{{
		VoucherType: entity.VoucherTypePayment,
		VoucherID:   p.ID,
		Ledger:      entity.LedgerGeneral,
		Account:     AccountUndeposited,
		Debit:       p.PaidAmount,
		Credit:      decimal.Zero,
		PostingDate: p.PostingDate,
	}}
	for _, ref := range p.References {
		invoiceID := ref.InvoiceID
		entries = append(entries, entity.LedgerEntry{
			VoucherType: entity.VoucherTypePayment,
			VoucherID:   p.ID,
			Ledger:      entity.LedgerPayment,
			Account:     AccountReceivable,
			PartyID:     &party,
			AgainstID:   &invoiceID,
			Debit:       decimal.Zero,
			Credit:      ref.AllocatedAmount,
			PostingDate: p.PostingDate,
		})
	}
	return entries
}
