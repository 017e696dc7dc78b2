package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LevelCountDTO struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

type NetworkOverviewResponse struct {
	Status string `json:"status"`
	Data   struct {
		NodeCount int             `json:"node_count"`
		MaxDepth  int             `json:"max_depth"`
		OpenSlots int             `json:"open_slots"`
		Levels    []LevelCountDTO `json:"levels"`
	} `json:"data"`
}

type CreditDTO struct {
	PaymentID string `json:"payment_id"`
	ShareKind string `json:"share_kind"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type MemberStatementResponse struct {
	Status string `json:"status"`
	Data   struct {
		MemberID      string      `json:"member_id"`
		ParentID      string      `json:"parent_id,omitempty"`
		Level         int         `json:"level"`
		Position      int         `json:"position"`
		PlacedAt      string      `json:"placed_at"`
		Credits       []CreditDTO `json:"credits"`
		TotalCredited string      `json:"total_credited"`
	} `json:"data"`
}

type LedgerTotalsResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalDistributed string `json:"total_distributed"`
		AncestorShare    string `json:"ancestor_share"`
		CompanyShare     string `json:"company_share"`
		EventCount       int    `json:"event_count"`
		PaymentCount     int    `json:"payment_count"`
	} `json:"data"`
}
