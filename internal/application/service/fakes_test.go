package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/application/worker"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/pagination"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

// memStore is an in-memory local store shared by the fake repositories.
// Records are copied in and out so callers cannot mutate stored state.
type memStore struct {
	mu        sync.Mutex
	now       func() time.Time
	invoices  map[uuid.UUID]entity.Invoice
	payments  map[uuid.UUID]entity.Payment
	customers map[uuid.UUID]entity.Customer
	items     map[string]entity.Item
	trackers  map[uuid.UUID]entity.ShipmentTracker
	ledger    []entity.LedgerEntry
	stateTax  []entity.StateTaxInfo
	settings  *entity.QuickBooksSettings

	// failure injection
	deleteInvoiceErr error
	createInvoiceErr error
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:       now,
		invoices:  make(map[uuid.UUID]entity.Invoice),
		payments:  make(map[uuid.UUID]entity.Payment),
		customers: make(map[uuid.UUID]entity.Customer),
		items:     make(map[string]entity.Item),
		trackers:  make(map[uuid.UUID]entity.ShipmentTracker),
	}
}

func (m *memStore) repositories() Repositories {
	return Repositories{
		Transactor: memTransactor{},
		Invoices:   &memInvoices{m},
		Payments:   &memPayments{m},
		Customers:  &memCustomers{m},
		Items:      &memItems{m},
		Trackers:   &memTrackers{m},
		Ledger:     &memLedger{m},
		SyncStates: &memSyncStates{m},
		StateTax:   &memStateTax{m},
		Settings:   &memSettings{m},
	}
}

func (m *memStore) addCustomer(c entity.Customer) entity.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.customers[c.ID] = c
	return c
}

func (m *memStore) addInvoice(inv entity.Invoice) entity.Invoice {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	m.invoices[inv.ID] = inv
	return inv
}

func (m *memStore) addTracker(t entity.ShipmentTracker) entity.ShipmentTracker {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now()
	}
	m.trackers[t.ID] = t
	return t
}

func (m *memStore) activeInvoices(externalID string) []entity.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range m.invoices {
		if inv.ExternalID != nil && *inv.ExternalID == externalID && inv.IsActive() {
			out = append(out, inv)
		}
	}
	return out
}

func (m *memStore) ledgerFor(voucherID uuid.UUID) []entity.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.LedgerEntry
	for _, e := range m.ledger {
		if e.VoucherID == voucherID {
			out = append(out, e)
		}
	}
	return out
}

type memTransactor struct{}

func (memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memInvoices struct{ m *memStore }

func (r *memInvoices) Create(ctx context.Context, inv *entity.Invoice) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createInvoiceErr != nil {
		return r.m.createInvoiceErr
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.m.now()
	}
	r.m.invoices[inv.ID] = *inv
	return nil
}

func (r *memInvoices) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inv, ok := r.m.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *memInvoices) ListActiveByExternalID(ctx context.Context, externalID string) ([]entity.Invoice, error) {
	out := r.m.activeInvoices(externalID)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memInvoices) Update(ctx context.Context, inv *entity.Invoice) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.invoices[inv.ID]
	if !ok {
		return errors.New("record not found")
	}
	items := stored.Items
	stored = *inv
	stored.Items = items
	r.m.invoices[inv.ID] = stored
	return nil
}

func (r *memInvoices) Delete(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.deleteInvoiceErr != nil {
		return r.m.deleteInvoiceErr
	}
	delete(r.m.invoices, id)
	return nil
}

type memPayments struct{ m *memStore }

func (r *memPayments) Create(ctx context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.m.now()
	}
	r.m.payments[p.ID] = *p
	return nil
}

func (r *memPayments) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPayments) GetByExternalID(ctx context.Context, externalID string) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.payments {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memPayments) Update(ctx context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.payments[p.ID] = *p
	return nil
}

func (r *memPayments) ReassignInvoice(ctx context.Context, fromInvoiceID, toInvoiceID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, p := range r.m.payments {
		refs := make([]entity.PaymentReference, len(p.References))
		copy(refs, p.References)
		for i := range refs {
			if refs[i].InvoiceID == fromInvoiceID {
				refs[i].InvoiceID = toInvoiceID
			}
		}
		p.References = refs
		r.m.payments[id] = p
	}
	return nil
}

type memCustomers struct{ m *memStore }

func (r *memCustomers) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCustomers) GetByExternalID(ctx context.Context, externalID string) (*entity.Customer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.customers {
		if c.ExternalID != nil && *c.ExternalID == externalID {
			return &c, nil
		}
	}
	return nil, nil
}

type memItems struct{ m *memStore }

func (r *memItems) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	item, ok := r.m.items[code]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *memItems) GetByExternalID(ctx context.Context, externalID string) (*entity.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, item := range r.m.items {
		if item.ExternalID != nil && *item.ExternalID == externalID {
			return &item, nil
		}
	}
	return nil, nil
}

func (r *memItems) ListByCodes(ctx context.Context, codes []string) (map[string]entity.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make(map[string]entity.Item)
	for _, code := range codes {
		if item, ok := r.m.items[code]; ok {
			out[code] = item
		}
	}
	return out, nil
}

func (r *memItems) Update(ctx context.Context, item *entity.Item) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.items[item.Code] = *item
	return nil
}

type memTrackers struct{ m *memStore }

func (r *memTrackers) GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.ShipmentTracker, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.trackers {
		if t.InvoiceID != nil && *t.InvoiceID == invoiceID {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *memTrackers) FindUninvoicedBySalesOrder(ctx context.Context, salesOrder string) (*entity.ShipmentTracker, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var found *entity.ShipmentTracker
	for _, t := range r.m.trackers {
		if t.SalesOrder != salesOrder || t.InvoiceID != nil {
			continue
		}
		if found == nil || t.CreatedAt.Before(found.CreatedAt) {
			t := t
			found = &t
		}
	}
	return found, nil
}

func (r *memTrackers) Update(ctx context.Context, t *entity.ShipmentTracker) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.trackers[t.ID] = *t
	return nil
}

func (r *memTrackers) DetachInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, t := range r.m.trackers {
		if t.InvoiceID != nil && *t.InvoiceID == invoiceID {
			t.InvoiceID = nil
			r.m.trackers[id] = t
		}
	}
	return nil
}

type memLedger struct{ m *memStore }

func (r *memLedger) CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		r.m.ledger = append(r.m.ledger, e)
	}
	return nil
}

func (r *memLedger) CancelByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.ledger {
		if r.m.ledger[i].VoucherType == voucherType && r.m.ledger[i].VoucherID == voucherID {
			r.m.ledger[i].IsCancelled = true
		}
	}
	return nil
}

func (r *memLedger) DeleteByVoucher(ctx context.Context, voucherType string, voucherID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.ledger[:0]
	for _, e := range r.m.ledger {
		own := e.VoucherType == voucherType && e.VoucherID == voucherID
		against := e.Ledger == entity.LedgerPayment && e.AgainstID != nil && *e.AgainstID == voucherID
		if !own && !against {
			kept = append(kept, e)
		}
	}
	r.m.ledger = kept
	return nil
}

func (r *memLedger) ReassignAgainst(ctx context.Context, fromVoucherID, toVoucherID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.ledger {
		e := &r.m.ledger[i]
		if e.Ledger == entity.LedgerPayment && e.AgainstID != nil && *e.AgainstID == fromVoucherID {
			to := toVoucherID
			e.AgainstID = &to
		}
	}
	return nil
}

type memSyncStates struct{ m *memStore }

func (r *memSyncStates) Get(ctx context.Context, ref entity.EntityRef) (*entity.SyncRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	switch ref.Kind {
	case enum.EntityKindItem:
		item, ok := r.m.items[ref.ID]
		if !ok {
			return nil, nil
		}
		return &entity.SyncRecord{Ref: ref, ExternalID: item.ExternalID, SyncState: item.SyncState}, nil
	}

	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, nil
	}
	switch ref.Kind {
	case enum.EntityKindInvoice:
		if inv, ok := r.m.invoices[id]; ok {
			return &entity.SyncRecord{Ref: ref, ExternalID: inv.ExternalID, SyncState: inv.SyncState}, nil
		}
	case enum.EntityKindPayment:
		if p, ok := r.m.payments[id]; ok {
			return &entity.SyncRecord{Ref: ref, ExternalID: p.ExternalID, SyncState: p.SyncState}, nil
		}
	case enum.EntityKindCustomer:
		if c, ok := r.m.customers[id]; ok {
			return &entity.SyncRecord{Ref: ref, ExternalID: c.ExternalID, SyncState: c.SyncState}, nil
		}
	}
	return nil, nil
}

func (r *memSyncStates) Save(ctx context.Context, ref entity.EntityRef, state entity.SyncState, externalID *string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if ref.Kind == enum.EntityKindItem {
		item, ok := r.m.items[ref.ID]
		if !ok {
			return errors.New("record not found")
		}
		item.SyncState = state
		if externalID != nil {
			item.ExternalID = externalID
		}
		r.m.items[ref.ID] = item
		return nil
	}

	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return err
	}
	switch ref.Kind {
	case enum.EntityKindInvoice:
		inv, ok := r.m.invoices[id]
		if !ok {
			return errors.New("record not found")
		}
		inv.SyncState = state
		if externalID != nil {
			inv.ExternalID = externalID
		}
		r.m.invoices[id] = inv
	case enum.EntityKindPayment:
		p, ok := r.m.payments[id]
		if !ok {
			return errors.New("record not found")
		}
		p.SyncState = state
		if externalID != nil {
			p.ExternalID = externalID
		}
		r.m.payments[id] = p
	case enum.EntityKindCustomer:
		c, ok := r.m.customers[id]
		if !ok {
			return errors.New("record not found")
		}
		c.SyncState = state
		if externalID != nil {
			c.ExternalID = externalID
		}
		r.m.customers[id] = c
	}
	return nil
}

func (r *memSyncStates) ListRefs(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus) ([]entity.EntityRef, error) {
	records, _, err := r.List(ctx, kind, status, &pagination.PaginationParams{Page: 1, PerPage: 1000})
	if err != nil {
		return nil, err
	}
	refs := make([]entity.EntityRef, 0, len(records))
	for _, rec := range records {
		refs = append(refs, rec.Ref)
	}
	return refs, nil
}

func (r *memSyncStates) List(ctx context.Context, kind enum.EntityKind, status enum.SyncStatus, params *pagination.PaginationParams) ([]entity.SyncRecord, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []entity.SyncRecord
	add := func(id string, externalID *string, state entity.SyncState) {
		if state.SyncStatus == status {
			all = append(all, entity.SyncRecord{Ref: entity.EntityRef{Kind: kind, ID: id}, ExternalID: externalID, SyncState: state})
		}
	}
	switch kind {
	case enum.EntityKindInvoice:
		for id, inv := range r.m.invoices {
			add(id.String(), inv.ExternalID, inv.SyncState)
		}
	case enum.EntityKindPayment:
		for id, p := range r.m.payments {
			add(id.String(), p.ExternalID, p.SyncState)
		}
	case enum.EntityKindCustomer:
		for id, c := range r.m.customers {
			add(id.String(), c.ExternalID, c.SyncState)
		}
	case enum.EntityKindItem:
		for code, item := range r.m.items {
			add(code, item.ExternalID, item.SyncState)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Ref.ID < all[j].Ref.ID })

	total := int64(len(all))
	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type memStateTax struct{ m *memStore }

func (r *memStateTax) List(ctx context.Context) ([]entity.StateTaxInfo, error) {
	return r.m.stateTax, nil
}

type memSettings struct{ m *memStore }

func (r *memSettings) Get(ctx context.Context) (*entity.QuickBooksSettings, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.settings == nil {
		return nil, nil
	}
	s := *r.m.settings
	return &s, nil
}

func (r *memSettings) Save(ctx context.Context, s *entity.QuickBooksSettings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *s
	r.m.settings = &cp
	return nil
}

// fakeClient serves remote snapshots from maps. The function fields
// override the create and update calls.
type fakeClient struct {
	mu       sync.Mutex
	invoices map[string]*remote.Invoice
	payments map[string]*remote.Payment
	items    map[string]*remote.Item
	fetches  int

	createInvoice  func(*remote.Invoice) (*remote.Invoice, error)
	createPayment  func(*remote.Payment) (*remote.Payment, error)
	createCustomer func(*remote.Customer) (*remote.Customer, error)
	updateItem     func(*remote.Item) (*remote.Item, error)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		invoices: make(map[string]*remote.Invoice),
		payments: make(map[string]*remote.Payment),
		items:    make(map[string]*remote.Item),
	}
}

func (f *fakeClient) GetInvoice(ctx context.Context, realmID, id string) (*remote.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	inv, ok := f.invoices[id]
	if !ok {
		return nil, apperror.NewNotFoundError("QuickBooks invoice/" + id)
	}
	return inv, nil
}

func (f *fakeClient) GetPayment(ctx context.Context, realmID, id string) (*remote.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	p, ok := f.payments[id]
	if !ok {
		return nil, apperror.NewNotFoundError("QuickBooks payment/" + id)
	}
	return p, nil
}

func (f *fakeClient) GetItem(ctx context.Context, id string) (*remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NewNotFoundError("QuickBooks item/" + id)
	}
	return item, nil
}

func (f *fakeClient) CreateInvoice(ctx context.Context, inv *remote.Invoice) (*remote.Invoice, error) {
	if f.createInvoice == nil {
		return nil, errors.New("unexpected CreateInvoice")
	}
	return f.createInvoice(inv)
}

func (f *fakeClient) CreatePayment(ctx context.Context, p *remote.Payment) (*remote.Payment, error) {
	if f.createPayment == nil {
		return nil, errors.New("unexpected CreatePayment")
	}
	return f.createPayment(p)
}

func (f *fakeClient) CreateCustomer(ctx context.Context, c *remote.Customer) (*remote.Customer, error) {
	if f.createCustomer == nil {
		return nil, errors.New("unexpected CreateCustomer")
	}
	return f.createCustomer(c)
}

func (f *fakeClient) UpdateItem(ctx context.Context, item *remote.Item) (*remote.Item, error) {
	if f.updateItem == nil {
		return nil, errors.New("unexpected UpdateItem")
	}
	return f.updateItem(item)
}

// noopLocker grants every lock immediately
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// recordingQueue keeps submitted jobs for the test to run
type recordingQueue struct {
	jobs []worker.Job
	err  error
}

func (q *recordingQueue) Submit(job worker.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) runAll(ctx context.Context) []error {
	var errs []error
	for _, job := range q.jobs {
		errs = append(errs, job.Run(ctx))
	}
	q.jobs = nil
	return errs
}
