package dto

// PaymentSummaryRow is one (provider, status) bucket of the reconciliation report.
type PaymentSummaryRow struct {
	Provider string `db:"provider" json:"provider"`
	Status   string `db:"status" json:"status"`
	Count    int64  `db:"txn_count" json:"count"`
	TotalVND int64  `db:"total_vnd" json:"total_vnd"`
}

type PaymentReport struct {
	From     string              `json:"from,omitempty"`
	To       string              `json:"to,omitempty"`
	Provider string              `json:"provider,omitempty"`
	Rows     []PaymentSummaryRow `json:"rows"`
	TotalVND int64               `json:"total_vnd"` // succeeded only
}
