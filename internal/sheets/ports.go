package sheets

import (
	"context"

	"homeledger/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportWriter mirrors a built report to an external spreadsheet,
	// one worksheet per report sheet.
	ReportWriter interface {
		WriteReport(ctx context.Context, r report.Report) error
	}
)
