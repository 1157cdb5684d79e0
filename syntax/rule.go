package syntax

import (
	"fmt"
	"strings"
)

// StartRule is the grammar mode a formula is compiled under.
type StartRule string

const (
	// RuleExpression custom columns.
	RuleExpression StartRule = "expression"
	// RuleBoolean filter predicates.
	RuleBoolean StartRule = "boolean"
	// RuleAggregation aggregation expressions; the only mode where aggregate
	// functions and metrics are legal.
	RuleAggregation StartRule = "aggregation"
)

// Rules lists every start rule.
func Rules() []StartRule {
	return []StartRule{RuleExpression, RuleBoolean, RuleAggregation}
}

// ParseStartRule parses a start rule name case-insensitively.
func ParseStartRule(s string) (StartRule, error) {
	switch StartRule(strings.ToLower(strings.TrimSpace(s))) {
	case RuleExpression:
		return RuleExpression, nil
	case RuleBoolean:
		return RuleBoolean, nil
	case RuleAggregation:
		return RuleAggregation, nil
	}
	return "", fmt.Errorf("unknown start rule %q", s)
}

func (r StartRule) String() string {
	return string(r)
}
