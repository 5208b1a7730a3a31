package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
)

func newTestServer(t *testing.T) (*ledger.Ledger, *httptest.Server) {
	t.Helper()
	l := ledger.New()
	s := NewServer("127.0.0.1:0", l)
	ts := httptest.NewServer(s.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return l, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateAccountAndState(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts", map[string]any{
		"name":    "Checking",
		"balance": 1500.50,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var acc core.BankAccount
	decodeBody(t, resp, &acc)
	if acc.ID == "" || acc.Name != "Checking" {
		t.Errorf("unexpected account: %+v", acc)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	var state struct {
		Accounts     []core.BankAccount `json:"accounts"`
		Transactions []core.Transaction `json:"transactions"`
		NetWorth     core.Money         `json:"netWorth"`
		HasPIN       bool               `json:"hasPin"`
		Revision     uint64             `json:"revision"`
	}
	decodeBody(t, resp, &state)
	if len(state.Accounts) != 1 {
		t.Fatalf("state has %d accounts, want 1", len(state.Accounts))
	}
	// Opening balance shows up both as net worth and as an initial deposit.
	if state.NetWorth.String() != "1500.5" {
		t.Errorf("netWorth = %s, want 1500.5", state.NetWorth)
	}
	if len(state.Transactions) != 1 || state.Transactions[0].Type != core.TypeIncome {
		t.Errorf("expected one initial deposit transaction, got %+v", state.Transactions)
	}
	if state.Revision != 1 {
		t.Errorf("revision = %d, want 1", state.Revision)
	}
}

func TestCreateAccountRejectsEmptyName(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts", map[string]any{
		"name":    "   ",
		"balance": 10,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestEditUnknownAccountIs404(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/accounts/nope", map[string]any{
		"name":    "X",
		"balance": 1,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteAccountIsIdempotent(t *testing.T) {
	l, ts := newTestServer(t)
	acc := l.CreateBankAccount("A", core.MoneyFromInt(100))

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/accounts/"+acc.ID, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete #%d status = %d, want 204", i+1, resp.StatusCode)
		}
	}
	if len(l.Accounts()) != 0 {
		t.Errorf("account not removed")
	}
}

func TestTransferMovesMoney(t *testing.T) {
	l, ts := newTestServer(t)
	src := l.CreateBankAccount("Src", core.MoneyFromInt(100))
	dst := l.CreateBankAccount("Dst", core.MoneyFromInt(0))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transfers", map[string]any{
		"sourceId":        src.ID,
		"destinationType": "BANK",
		"destinationId":   dst.ID,
		"amount":          40,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var tx core.Transaction
	decodeBody(t, resp, &tx)
	if tx.Type != core.TypeTransferBank {
		t.Errorf("type = %s, want TRANSFER_BANK", tx.Type)
	}

	got, _ := l.BankBalance(dst.ID)
	if got.String() != "40" {
		t.Errorf("destination balance = %s, want 40", got)
	}
}

func TestTransferInsufficientFundsIs409(t *testing.T) {
	l, ts := newTestServer(t)
	src := l.CreateBankAccount("Src", core.MoneyFromInt(10))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transfers", map[string]any{
		"sourceId":        src.ID,
		"destinationType": "CASH",
		"amount":          100,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestTransferUnknownDestinationKindIs400(t *testing.T) {
	l, ts := newTestServer(t)
	src := l.CreateBankAccount("Src", core.MoneyFromInt(10))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transfers", map[string]any{
		"sourceId":        src.ID,
		"destinationType": "CRYPTO",
		"amount":          5,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExpenseRejectsNonPositiveAmount(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"sourceId": "CASH",
		"amount":   -5,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIncomeAndExpenseFlow(t *testing.T) {
	l, ts := newTestServer(t)
	acc := l.CreateBankAccount("Main", core.MoneyFromInt(0))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/"+acc.ID+"/income", map[string]any{
		"amount": 2000,
		"date":   "2026-03-01",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("income status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"sourceId": acc.ID,
		"amount":   250.75,
		"remarks":  "groceries",
		"date":     "2026-03-02",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expense status = %d, want 201", resp.StatusCode)
	}

	got, _ := l.BankBalance(acc.ID)
	if got.String() != "1749.25" {
		t.Errorf("balance = %s, want 1749.25", got)
	}
}

func TestTransactionsRangeFilter(t *testing.T) {
	l, ts := newTestServer(t)
	acc := l.CreateBankAccount("Main", core.MoneyFromInt(1000))

	dates := []string{"2026-01-10", "2026-02-10", "2026-03-10"}
	for _, d := range dates {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
			"sourceId": acc.ID,
			"amount":   10,
			"date":     d,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expense on %s: status %d", d, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/transactions?from=2026-02-01&to=2026-02-28", nil)
	var txs []core.Transaction
	decodeBody(t, resp, &txs)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Date.Format("2006-01-02") != "2026-02-10" {
		t.Errorf("wrong transaction in range: %s", txs[0].Date)
	}
}

func TestTransactionsBadDateIs400(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/transactions?from=junk", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReportDownload(t *testing.T) {
	l, ts := newTestServer(t)
	l.CreateBankAccount("Main", core.MoneyFromInt(500))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/report?from=2026-01-01&to=2026-12-31", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.ms-excel" {
		t.Errorf("Content-Type = %s", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "FinanceReport_2026-01-01_to_2026-12-31.xls") {
		t.Errorf("Content-Disposition = %s", cd)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Contains(body, []byte("<Workbook")) || !bytes.Contains(body, []byte("Snapshot")) {
		t.Errorf("report body does not look like a spreadsheet")
	}
}

func TestReportCachedPerRevision(t *testing.T) {
	l, ts := newTestServer(t)
	l.CreateBankAccount("Main", core.MoneyFromInt(500))

	url := ts.URL + "/api/report?from=2026-01-01&to=2026-12-31"
	first := doJSON(t, http.MethodGet, url, nil)
	b1, _ := io.ReadAll(first.Body)
	first.Body.Close()

	second := doJSON(t, http.MethodGet, url, nil)
	b2, _ := io.ReadAll(second.Body)
	second.Body.Close()
	if !bytes.Equal(b1, b2) {
		t.Errorf("unchanged ledger produced different reports")
	}

	// A mutation bumps the revision; the next download must see it.
	l.CreateBankAccount("Extra", core.MoneyFromInt(100))
	third := doJSON(t, http.MethodGet, url, nil)
	b3, _ := io.ReadAll(third.Body)
	third.Body.Close()
	if !bytes.Contains(b3, []byte("Extra")) {
		t.Errorf("report served stale cached data after a mutation")
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	l, ts := newTestServer(t)
	l.CreateBankAccount("Main", core.MoneyFromInt(500))
	l.CreateLoanAccount("Car", core.MoneyFromInt(9000))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/backup", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("backup status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "finance-backup-") {
		t.Errorf("Content-Disposition = %s", cd)
	}
	backupBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}

	// Wipe and restore into a fresh server.
	l2, ts2 := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, ts2.URL+"/api/restore", bytes.NewReader(backupBody))
	restoreResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	restoreResp.Body.Close()
	if restoreResp.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d, want 200", restoreResp.StatusCode)
	}

	if len(l2.Accounts()) != 1 || len(l2.Loans()) != 1 {
		t.Errorf("restored state: %d accounts, %d loans", len(l2.Accounts()), len(l2.Loans()))
	}
	if got := l2.TotalBankBalance(); got.String() != "500" {
		t.Errorf("restored bank balance = %s, want 500", got)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/restore", strings.NewReader(`{"nothing":"useful"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPINLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	// No PIN set: unlock always succeeds.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/unlock", map[string]any{"pin": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unlock without pin: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/pin", map[string]any{"pin": "1234"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set pin: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/unlock", map[string]any{"pin": "0000"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong pin: status %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/unlock", map[string]any{"pin": "1234"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("correct pin: status %d, want 200", resp.StatusCode)
	}
}

func TestCurrencySelection(t *testing.T) {
	l, ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/currencies", nil)
	var list []core.CurrencyConfig
	decodeBody(t, resp, &list)
	if len(list) == 0 {
		t.Fatalf("no currencies listed")
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/currency", map[string]any{"code": "EUR"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set currency: status %d", resp.StatusCode)
	}
	if cur := l.Currency(); cur == nil || cur.Code != "EUR" {
		t.Errorf("currency not applied: %+v", cur)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/currency", map[string]any{"code": "XXX"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown currency: status %d, want 400", resp.StatusCode)
	}
}

func TestStateFormatsTotalsInSelectedCurrency(t *testing.T) {
	l, ts := newTestServer(t)
	l.CreateBankAccount("Main", core.MoneyFromFloat(1234.5))

	var state struct {
		Formatted *struct {
			NetWorth         string `json:"netWorth"`
			TotalBankBalance string `json:"totalBankBalance"`
			OutstandingLoans string `json:"outstandingLoans"`
			CashBalance      string `json:"cashBalance"`
		} `json:"formatted"`
	}

	// Without a selected currency there is nothing to format.
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	decodeBody(t, resp, &state)
	if state.Formatted != nil {
		t.Fatalf("formatted totals present without a currency: %+v", state.Formatted)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/currency", map[string]any{"code": "EUR"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set currency: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	decodeBody(t, resp, &state)
	if state.Formatted == nil {
		t.Fatalf("formatted totals missing after selecting a currency")
	}
	if state.Formatted.NetWorth != "€1,234.50" {
		t.Errorf("formatted netWorth = %q, want €1,234.50", state.Formatted.NetWorth)
	}
	if state.Formatted.TotalBankBalance != "€1,234.50" {
		t.Errorf("formatted totalBankBalance = %q, want €1,234.50", state.Formatted.TotalBankBalance)
	}
	if state.Formatted.CashBalance != "€0.00" {
		t.Errorf("formatted cashBalance = %q, want €0.00", state.Formatted.CashBalance)
	}
}

func TestStateTotalsMatchCollections(t *testing.T) {
	l, ts := newTestServer(t)
	l.CreateBankAccount("A", core.MoneyFromInt(100))
	l.CreateBankAccount("B", core.MoneyFromInt(250))
	l.CreateLoanAccount("Car", core.MoneyFromInt(9000))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	var state struct {
		Accounts         []core.BankAccount `json:"accounts"`
		Loans            []core.LoanAccount `json:"loans"`
		CashBalance      core.Money         `json:"cashBalance"`
		TotalBankBalance core.Money         `json:"totalBankBalance"`
		OutstandingLoans core.Money         `json:"outstandingLoans"`
		NetWorth         core.Money         `json:"netWorth"`
	}
	decodeBody(t, resp, &state)

	var bank, loan core.Money
	for _, a := range state.Accounts {
		bank = bank.Add(a.Balance)
	}
	for _, lo := range state.Loans {
		loan = loan.Add(lo.Balance)
	}
	if !state.TotalBankBalance.Equal(bank) {
		t.Errorf("totalBankBalance = %s, accounts sum to %s", state.TotalBankBalance, bank)
	}
	if !state.OutstandingLoans.Equal(loan) {
		t.Errorf("outstandingLoans = %s, loans sum to %s", state.OutstandingLoans, loan)
	}
	if !state.NetWorth.Equal(bank.Add(state.CashBalance)) {
		t.Errorf("netWorth = %s, want bank+cash = %s", state.NetWorth, bank.Add(state.CashBalance))
	}
}

func TestCredentialLifecycle(t *testing.T) {
	l, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/credential", map[string]any{"credentialId": "cred-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set credential: status %d", resp.StatusCode)
	}
	if l.CredentialID() != "cred-1" {
		t.Errorf("credential not stored")
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/credential", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete credential: status %d", resp.StatusCode)
	}
	if l.CredentialID() != "" {
		t.Errorf("credential not cleared")
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts", map[string]any{
		"name":    "A",
		"balanse": 10,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	_, ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiterAllows(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()
	m := &securityMetrics{}

	for i := 0; i < 60; i++ {
		if !rl.allow("1.2.3.4", m) {
			t.Fatalf("request %d rejected under the limit", i+1)
		}
	}
	if rl.allow("1.2.3.4", m) {
		t.Errorf("request 61 allowed over the limit")
	}
	// Another client is unaffected.
	if !rl.allow("5.6.7.8", m) {
		t.Errorf("independent client rejected")
	}
	if m.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", m.rateLimitHits)
	}
}

func TestExtractClientIPHonorsTrustedProxy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:12345"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := extractClientIP(r); got != "203.0.113.7" {
		t.Errorf("client ip = %s, want 203.0.113.7", got)
	}

	// Untrusted peers cannot spoof via forwarding headers.
	r.RemoteAddr = "198.51.100.9:443"
	if got := extractClientIP(r); got != "198.51.100.9" {
		t.Errorf("client ip = %s, want 198.51.100.9", got)
	}
}

func TestParseDateRange(t *testing.T) {
	now, _ := parseDate("2026-03-15")

	r := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	from, to, err := parseDateRange(r, now)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if from.Format(dateLayout) != "2026-03-01" || to.Format(dateLayout) != "2026-03-15" {
		t.Errorf("defaults = %s..%s", from.Format(dateLayout), to.Format(dateLayout))
	}

	r = httptest.NewRequest(http.MethodGet, "/api/transactions?from=2026-05-01&to=2026-04-01", nil)
	if _, _, err := parseDateRange(r, now); err == nil {
		t.Errorf("inverted range accepted")
	}
}

func TestSanitizeInput(t *testing.T) {
	got := sanitizeInput("  hi\x00there\x07 ")
	if got != "hithere" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
