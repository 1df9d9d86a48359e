package handler

import "trustplane/internal/risk"

// EvaluateResponse is the HTTP response for POST /checkout/risk.
type EvaluateResponse struct {
	Score   int      `json:"score"`
	Tier    string   `json:"tier"`
	Action  string   `json:"action"`
	Reasons []string `json:"reasons"`
}

func FromScore(s risk.RiskScore) *EvaluateResponse {
	reasons := s.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &EvaluateResponse{
		Score:   s.Value,
		Tier:    string(s.Tier),
		Action:  string(s.Action),
		Reasons: reasons,
	}
}
