package authz

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyViolation describes the first failing attribute policy of an
// evaluation. A nil violation means all policies passed.
type PolicyViolation struct {
	Policy      AttributePolicy
	ActualValue string
	HasValue    bool
}

// Reason renders the attribute/operator/value triple that failed.
func (v PolicyViolation) Reason() string {
	if !v.HasValue {
		return fmt.Sprintf("attribute %q missing (requires %s %s %q)",
			v.Policy.Attribute, v.Policy.Attribute, v.Policy.Operator, v.Policy.Value)
	}
	return fmt.Sprintf("attribute %q value %q does not satisfy %s %s %q",
		v.Policy.Attribute, v.ActualValue, v.Policy.Attribute, v.Policy.Operator, v.Policy.Value)
}

// evaluatePolicies applies every policy bound to the capability against
// the actor attributes. Policies combine with AND; the first failure
// short-circuits and is returned. Zero policies is a vacuous allow.
func evaluatePolicies(attrs Attributes, policies []AttributePolicy) *PolicyViolation {
	for _, policy := range policies {
		value, ok := attrs[policy.Attribute]
		if !ok {
			return &PolicyViolation{Policy: policy}
		}
		if !satisfies(value, policy.Operator, policy.Value) {
			return &PolicyViolation{Policy: policy, ActualValue: value, HasValue: true}
		}
	}
	return nil
}

func satisfies(actual string, op Operator, expected string) bool {
	switch op {
	case OpEqual:
		return actual == expected
	case OpNotEqual:
		return actual != expected
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return compareNumeric(actual, op, expected)
	case OpIn:
		return inList(actual, expected)
	case OpNotIn:
		return !inList(actual, expected)
	}
	// Unknown operator never satisfies.
	return false
}

func compareNumeric(actual string, op Operator, expected string) bool {
	left, err := strconv.Atoi(strings.TrimSpace(actual))
	if err != nil {
		return false
	}
	right, err := strconv.Atoi(strings.TrimSpace(expected))
	if err != nil {
		return false
	}
	switch op {
	case OpGreater:
		return left > right
	case OpLess:
		return left < right
	case OpGreaterEqual:
		return left >= right
	case OpLessEqual:
		return left <= right
	}
	return false
}

// inList tests membership against a comma-separated policy value.
func inList(actual, list string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == actual {
			return true
		}
	}
	return false
}
