package remote

// Entity names carried in webhook notifications
const (
	EntityInvoice  = "Invoice"
	EntityPayment  = "Payment"
	EntityCustomer = "Customer"
	EntityItem     = "Item"
)

// WebhookPayload is the body Intuit posts to the webhook endpoint
type WebhookPayload struct {
	EventNotifications []EventNotification `json:"eventNotifications"`
}

type EventNotification struct {
	RealmID         string          `json:"realmId"`
	DataChangeEvent DataChangeEvent `json:"dataChangeEvent"`
}

type DataChangeEvent struct {
	Entities []EntityChange `json:"entities"`
}

type EntityChange struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Operation   string `json:"operation"`
	LastUpdated string `json:"lastUpdated"`
}
