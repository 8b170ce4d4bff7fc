// Package dbctx bundles a request-scoped context.Context with an optional
// in-flight GORM transaction, so call chains thread both explicitly instead
// of relying on a package-level or thread-local database handle.
package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the caller's context.Context plus an optional transaction.
// When Tx is nil, callers fall back to their own base *gorm.DB handle.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Resolve returns dbc.Tx if set, otherwise base.
func (dbc Context) Resolve(base *gorm.DB) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return base
}

// Background returns a Context with no transaction, for call sites outside
// of a request (periodic loops).
func Background() Context {
	return Context{Ctx: context.Background()}
}
