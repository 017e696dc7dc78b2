package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlaceMemberRequest struct {
	ReferrerID string `json:"referrer_id,omitempty"`
	MemberID   string `json:"member_id"`
}

type NodeDTO struct {
	MemberID  string `json:"member_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Level     int    `json:"level"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

type PlaceMemberResponse struct {
	Status   string  `json:"status"`
	Overflow bool    `json:"overflow"`
	Data     NodeDTO `json:"data"`
}

type NodeResponse struct {
	Status string  `json:"status"`
	Data   NodeDTO `json:"data"`
}

type NodeListResponse struct {
	Status string    `json:"status"`
	Data   []NodeDTO `json:"data"`
}
