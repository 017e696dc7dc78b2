package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DistributeRequest struct {
	PaymentID     string `json:"payment_id"`
	PayerMemberID string `json:"payer_member_id"`
	UnitAmount    string `json:"unit_amount,omitempty"`
	TotalAmount   string `json:"total_amount"`
}

type DistributionEventDTO struct {
	EventID       string `json:"event_id"`
	PaymentID     string `json:"payment_id"`
	BeneficiaryID string `json:"beneficiary_id"`
	ShareKind     string `json:"share_kind"`
	Amount        string `json:"amount"`
	Depth         int    `json:"depth"`
	CreatedAt     string `json:"created_at"`
}

type DistributeResponse struct {
	Status   string                 `json:"status"`
	Replayed bool                   `json:"replayed"`
	Data     []DistributionEventDTO `json:"data"`
}

type EventListResponse struct {
	Status string                 `json:"status"`
	Data   []DistributionEventDTO `json:"data"`
}

type TotalsResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalDistributed string `json:"total_distributed"`
		AncestorShare    string `json:"ancestor_share"`
		CompanyShare     string `json:"company_share"`
		EventCount       int    `json:"event_count"`
		PaymentCount     int    `json:"payment_count"`
	} `json:"data"`
}
