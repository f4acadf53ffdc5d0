package domain

import "github.com/shopspring/decimal"

type QuoteLine struct {
	ProductID int64
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	// InStock is the catalog stock at quote time; it may be lower than
	// Quantity since carts do not hold reservations.
	InStock int32
}

type Quote struct {
	UserID int64
	Lines  []QuoteLine
	Total  decimal.Decimal
}
