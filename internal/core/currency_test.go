package core

import "testing"

func TestCurrencyConfigFormat(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		amount Money
		want   string
	}{
		{
			name:   "two fraction digits with grouping",
			code:   "INR",
			amount: MoneyFromFloat(1234.5),
			want:   "₹1,234.50",
		},
		{
			name:   "zero fraction digits",
			code:   "JPY",
			amount: MoneyFromInt(1234),
			want:   "¥1,234",
		},
		{
			name:   "negative amount",
			code:   "USD",
			amount: MoneyFromFloat(-42.07),
			want:   "-$42.07",
		},
		{
			name:   "rounds to minor units",
			code:   "USD",
			amount: MoneyFromFloat(10.005),
			want:   "$10.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := CurrencyByCode(tt.code)
			if !ok {
				t.Fatalf("CurrencyByCode(%q) not found", tt.code)
			}
			if got := cfg.Format(tt.amount); got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCurrencyConfigFormatUnknownCodeFallsBack(t *testing.T) {
	cfg := CurrencyConfig{Code: "ZZZ", Symbol: "z$"}
	if got := cfg.Format(MoneyFromFloat(1234.5)); got != "z$1234.5" {
		t.Errorf("Format = %q, want z$1234.5", got)
	}
}
