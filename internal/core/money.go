// Money parsing and arithmetic.
//
// Amounts are kept as exact decimals. Transaction amounts are always
// positive; balances are signed (overdrafts and overpaid loans are legal).
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is zero money.
//
// It marshals as a bare JSON number so snapshots and backups round-trip
// with files written by earlier versions of the app, and unmarshals from
// both quoted and unquoted numbers.
type Money struct {
	dec decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{dec: d} }

func MoneyFromFloat(f float64) Money { return Money{dec: decimal.NewFromFloat(f)} }

func MoneyFromInt(i int64) Money { return Money{dec: decimal.NewFromInt(i)} }

// ParseMoney parses a strictly positive amount. It accepts both dot and
// comma decimal separators and rejects empty, signed, non-numeric and
// non-positive input with ErrInvalidAmount.
func ParseMoney(s string) (Money, error) {
	m, err := ParseBalance(s)
	if err != nil {
		return Money{}, err
	}
	if !m.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseBalance parses a signed decimal. Balances may legitimately be
// negative (overdraft), so only the numeric format is checked.
func ParseBalance(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{dec: d}, nil
}

func (m Money) Add(n Money) Money { return Money{dec: m.dec.Add(n.dec)} }
func (m Money) Sub(n Money) Money { return Money{dec: m.dec.Sub(n.dec)} }
func (m Money) Neg() Money        { return Money{dec: m.dec.Neg()} }
func (m Money) Abs() Money        { return Money{dec: m.dec.Abs()} }

func (m Money) IsZero() bool     { return m.dec.IsZero() }
func (m Money) IsPositive() bool { return m.dec.IsPositive() }
func (m Money) IsNegative() bool { return m.dec.IsNegative() }

func (m Money) Equal(n Money) bool       { return m.dec.Equal(n.dec) }
func (m Money) GreaterThan(n Money) bool { return m.dec.GreaterThan(n.dec) }
func (m Money) LessThan(n Money) bool    { return m.dec.LessThan(n.dec) }

// String returns the plain decimal representation, e.g. "1234.5".
func (m Money) String() string { return m.dec.String() }

// Float64 returns an inexact float for spreadsheet cells and display.
func (m Money) Float64() float64 { return m.dec.InexactFloat64() }

func (m Money) Decimal() decimal.Decimal { return m.dec }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		m.dec = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return err
	}
	m.dec = d
	return nil
}
