package domain

import "github.com/shopspring/decimal"

// InstrumentBorrow is the outstanding borrow balance on a single lending
// market (cToken), already scaled from native token units.
type InstrumentBorrow struct {
	Instrument string
	Balance    decimal.Decimal
}

// AccountPosition is one account's liquidity snapshot as reported by the
// Comptroller. Liquidity and Shortfall are USD-denominated and mutually
// exclusive upstream: at most one of them is non-zero.
type AccountPosition struct {
	Liquidity decimal.Decimal
	Shortfall decimal.Decimal
	Borrows   []InstrumentBorrow
}
