package domain

// ScreeningRule is an operator-defined CEL expression evaluated against a
// transaction at transition time. Screening is advisory: a matching rule
// contributes a reason to the alert event but never overrides the
// classifier verdict.
type ScreeningRule struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Reason     string `json:"reason"`
	Enabled    bool   `json:"enabled"`
}

// ScreeningMatch is the outcome of one matched screening rule.
type ScreeningMatch struct {
	RuleID string `json:"ruleId"`
	Reason string `json:"reason"`
}
