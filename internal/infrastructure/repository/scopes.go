package repository

import (
	"context"

	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"gorm.io/gorm"
)

type ctxKey string

// TxKey is the context key for the active gorm transaction
const TxKey ctxKey = "gorm_tx"

// WithTx adds an open transaction to context so repositories join it
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// GetTx extracts the active transaction from context
func GetTx(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TxKey).(*gorm.DB)
	return tx, ok
}

// dbFrom returns the transaction carried by ctx, or db when there is none
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := GetTx(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

type transactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor backed by gorm transactions
func NewTransactor(db *gorm.DB) repository.Transactor {
	return &transactor{db: db}
}

// WithinTransaction runs fn in a transaction. A nested call joins the
// outer transaction instead of opening a savepoint.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
