package service

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"golang.org/x/oauth2"
)

// AccountingClient is the remote accounting API. An empty realmID means
// the connected company.
type AccountingClient interface {
	GetInvoice(ctx context.Context, realmID, id string) (*remote.Invoice, error)
	GetPayment(ctx context.Context, realmID, id string) (*remote.Payment, error)
	GetItem(ctx context.Context, id string) (*remote.Item, error)
	CreateInvoice(ctx context.Context, invoice *remote.Invoice) (*remote.Invoice, error)
	CreatePayment(ctx context.Context, payment *remote.Payment) (*remote.Payment, error)
	CreateCustomer(ctx context.Context, customer *remote.Customer) (*remote.Customer, error)
	UpdateItem(ctx context.Context, item *remote.Item) (*remote.Item, error)
}

// TokenProvider runs the QuickBooks OAuth code flow and token refresh
type TokenProvider interface {
	IsConfigured() bool
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// EntityLocker serialises work on one key. The returned func releases it.
type EntityLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// JobQueue accepts background jobs without blocking
type JobQueue interface {
	Submit(job worker.Job) error
}

// Repositories groups the local store used by the sync services
type Repositories struct {
	Transactor repository.Transactor
	Invoices   repository.InvoiceRepository
	Payments   repository.PaymentRepository
	Customers  repository.CustomerRepository
	Items      repository.ItemRepository
	Trackers   repository.ShipmentTrackerRepository
	Ledger     repository.LedgerRepository
	SyncStates repository.SyncStateRepository
	StateTax   repository.StateTaxRepository
	Settings   repository.SettingsRepository
}
