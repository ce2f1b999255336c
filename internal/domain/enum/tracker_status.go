package enum

// TrackerStatus is the lifecycle stage recorded on a shipment tracker
type TrackerStatus string

const (
	TrackerStatusSalesOrderMade  TrackerStatus = "Sales Order Made"
	TrackerStatusInvoiceSent     TrackerStatus = "Invoice Sent"
	TrackerStatusPaymentReceived TrackerStatus = "Payment Received"
)
