package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBuildInvoicePayload(t *testing.T) {
	customer := &entity.Customer{ExternalID: strPtr("C-7")}
	inv := &entity.Invoice{
		PostingDate:     time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		SalesOrder:      "SO-0001",
		DiscountPercent: d("5"),
		DiscountAmount:  d("1.50"),
		Items: []entity.InvoiceItem{
			{ItemCode: "WRISTBAND", Qty: d("10"), Rate: d("2.00")},
			{ItemCode: "LANYARD", Qty: d("1"), Rate: d("10.00")},
			{ItemCode: "LOCAL-ONLY", Qty: d("1"), Rate: d("1.00")},
		},
	}
	items := map[string]entity.Item{
		"WRISTBAND":  {Code: "WRISTBAND", ExternalID: strPtr("11"), PriceListRate: d("1.90")},
		"LANYARD":    {Code: "LANYARD", ExternalID: strPtr("12")},
		"LOCAL-ONLY": {Code: "LOCAL-ONLY"},
	}

	payload, skipped, err := BuildInvoicePayload(inv, customer, items)
	require.NoError(t, err)

	assert.Equal(t, []string{"LOCAL-ONLY"}, skipped)
	assert.Equal(t, "C-7", payload.CustomerRef.Value)
	assert.Equal(t, "2026-03-04", payload.TxnDate)
	assert.Equal(t, "SO-0001", payload.DocNumber)
	require.Len(t, payload.Line, 3)
	assert.True(t, payload.Line[0].SalesItemLineDetail.UnitPrice.Equal(d("1.90")), "list price wins")
	assert.True(t, payload.Line[0].Amount.Equal(d("19.00")))
	assert.True(t, payload.Line[1].SalesItemLineDetail.UnitPrice.Equal(d("10.00")), "line rate fallback")
	assert.Equal(t, remote.DetailTypeDiscount, payload.Line[2].DetailType)
	assert.True(t, payload.Line[2].DiscountLineDetail.PercentBased)
}

func TestBuildInvoicePayloadErrors(t *testing.T) {
	inv := &entity.Invoice{Items: []entity.InvoiceItem{{ItemCode: "X", Qty: d("1"), Rate: d("1")}}}

	_, _, err := BuildInvoicePayload(inv, &entity.Customer{}, nil)
	assert.ErrorIs(t, err, ErrCustomerNotInQBO)

	_, skipped, err := BuildInvoicePayload(inv, &entity.Customer{ExternalID: strPtr("C-1")}, map[string]entity.Item{})
	assert.ErrorIs(t, err, ErrNoSyncableLines)
	assert.Equal(t, []string{"X"}, skipped)
}

func TestBuildPaymentPayload(t *testing.T) {
	synced := uuid.New()
	unsynced := uuid.New()
	customer := &entity.Customer{ExternalID: strPtr("C-7")}
	p := &entity.Payment{
		PostingDate:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		PaidAmount:    d("150.00"),
		ModeOfPayment: "Check",
		ReferenceNo:   "CHK-88",
		References: []entity.PaymentReference{
			{InvoiceID: synced, AllocatedAmount: d("100.00")},
			{InvoiceID: unsynced, AllocatedAmount: d("50.00")},
		},
	}
	settings := PaymentSettings{DepositAccountID: "35", PaymentMethods: map[string]string{"Check": "2"}}

	payload, err := BuildPaymentPayload(p, customer, map[string]string{synced.String(): "42"}, settings)
	require.NoError(t, err)

	assert.Equal(t, "2", payload.PaymentMethodRef.Value)
	assert.Equal(t, "35", payload.DepositToAccountRef.Value)
	require.Len(t, payload.Line, 1)
	assert.Equal(t, "42", payload.Line[0].LinkedTxn[0].TxnID)
	assert.Equal(t, remote.TxnTypeInvoice, payload.Line[0].LinkedTxn[0].TxnType)
	assert.True(t, payload.TotalAmt.Equal(d("150.00")))
}

func TestBuildPaymentPayloadUnlinked(t *testing.T) {
	customer := &entity.Customer{ExternalID: strPtr("C-7")}
	p := &entity.Payment{PaidAmount: d("20.00")}

	payload, err := BuildPaymentPayload(p, customer, nil, PaymentSettings{})
	require.NoError(t, err)
	require.Len(t, payload.Line, 1)
	assert.Empty(t, payload.Line[0].LinkedTxn)
	assert.Nil(t, payload.PaymentMethodRef)

	p.ModeOfPayment = "Barter"
	_, err = BuildPaymentPayload(p, customer, nil, PaymentSettings{})
	assert.ErrorIs(t, err, ErrPaymentMethodMissing)
}

func TestBuildCustomerPayload(t *testing.T) {
	campID := uuid.New()
	number := "EX-1"
	c := &entity.Customer{
		Name:               "Jordan Lee",
		Email:              strPtr("jordan@example.com"),
		State:              "TX",
		City:               "Austin",
		TaxStatus:          enum.TaxStatusExempt,
		TaxExemptionNumber: &number,
		CampID:             &campID,
		Camp:               &entity.Organization{Name: "Camp Pine"},
	}

	payload := BuildCustomerPayload(c, true)

	assert.Equal(t, "Jordan Lee", payload.DisplayName)
	assert.Equal(t, "Camp Pine", payload.CompanyName)
	assert.Equal(t, "jordan@example.com", payload.PrimaryEmailAddr.Address)
	assert.Equal(t, "TX", payload.BillAddr.CountrySubDivisionCode)
	require.NotNil(t, payload.Taxable)
	assert.False(t, *payload.Taxable)
	assert.Equal(t, "EX-1", payload.ResaleNum)
}

func TestBuildItemUpdate(t *testing.T) {
	cost := d("3.10")
	update := BuildItemUpdate(&remote.Item{ID: "11", SyncToken: "4"}, &cost, nil)

	assert.True(t, update.Sparse)
	assert.Equal(t, "4", update.SyncToken)
	assert.Nil(t, update.UnitPrice)
	assert.True(t, update.PurchaseCost.Equal(cost))
}
