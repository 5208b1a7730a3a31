package core

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
)

// CurrencyConfig selects how amounts are displayed. It is part of the
// persisted snapshot so the choice survives restarts.
type CurrencyConfig struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Locale string `json:"locale"`
	Name   string `json:"name"`
}

// Supported display currencies. Symbols follow the original app; locale is
// cosmetic metadata for clients.
var currencies = []CurrencyConfig{
	{Code: "INR", Symbol: "₹", Locale: "en-IN", Name: "Indian Rupee"},
	{Code: "USD", Symbol: "$", Locale: "en-US", Name: "United States Dollar"},
	{Code: "EUR", Symbol: "€", Locale: "de-DE", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Locale: "en-GB", Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Locale: "ja-JP", Name: "Japanese Yen"},
	{Code: "AUD", Symbol: "A$", Locale: "en-AU", Name: "Australian Dollar"},
	{Code: "CAD", Symbol: "C$", Locale: "en-CA", Name: "Canadian Dollar"},
	{Code: "CHF", Symbol: "Fr", Locale: "de-CH", Name: "Swiss Franc"},
	{Code: "CNY", Symbol: "¥", Locale: "zh-CN", Name: "Chinese Yuan"},
	{Code: "NZD", Symbol: "NZ$", Locale: "en-NZ", Name: "New Zealand Dollar"},
	{Code: "SGD", Symbol: "S$", Locale: "en-SG", Name: "Singapore Dollar"},
	{Code: "AED", Symbol: "dh", Locale: "ar-AE", Name: "UAE Dirham"},
	{Code: "RUB", Symbol: "₽", Locale: "ru-RU", Name: "Russian Ruble"},
	{Code: "ZAR", Symbol: "R", Locale: "en-ZA", Name: "South African Rand"},
	{Code: "BRL", Symbol: "R$", Locale: "pt-BR", Name: "Brazilian Real"},
	{Code: "TRY", Symbol: "₺", Locale: "tr-TR", Name: "Turkish Lira"},
	{Code: "KRW", Symbol: "₩", Locale: "ko-KR", Name: "South Korean Won"},
	{Code: "MXN", Symbol: "$", Locale: "es-MX", Name: "Mexican Peso"},
	{Code: "SAR", Symbol: "﷼", Locale: "ar-SA", Name: "Saudi Riyal"},
	{Code: "IDR", Symbol: "Rp", Locale: "id-ID", Name: "Indonesian Rupiah"},
}

// Currencies returns the supported currency configurations.
func Currencies() []CurrencyConfig {
	out := make([]CurrencyConfig, len(currencies))
	copy(out, currencies)
	return out
}

// CurrencyByCode looks up a supported currency by its ISO code.
func CurrencyByCode(code string) (CurrencyConfig, bool) {
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return CurrencyConfig{}, false
}

// Format renders an amount in the configured currency, e.g. "₹1,234.50".
// Fraction digits and grouping come from the currency definition; unknown
// codes fall back to the raw symbol and decimal string.
func (c CurrencyConfig) Format(m Money) string {
	cur := gomoney.GetCurrency(c.Code)
	if cur == nil {
		return c.Symbol + m.String()
	}
	minor := m.Decimal().Shift(int32(cur.Fraction)).Round(0).IntPart()
	return gomoney.New(minor, c.Code).Display()
}

func (c CurrencyConfig) String() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Name)
}
