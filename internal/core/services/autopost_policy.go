package services

import (
	"github.com/acctlite/acctlite/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AutoPostPolicy decides whether a machine-derived journal entry may be
// posted without human review. It bounds the blast radius of unsupervised
// postings from an unreliable parser: only totals strictly below the limit
// qualify, and a missing total never does.
type AutoPostPolicy struct {
	Limit decimal.Decimal
}

// NewAutoPostPolicy creates a policy with the given auto-post limit.
func NewAutoPostPolicy(limit decimal.Decimal) AutoPostPolicy {
	return AutoPostPolicy{Limit: limit}
}

// ShouldAutoPost reports whether the parsed receipt qualifies for automatic
// posting.
func (p AutoPostPolicy) ShouldAutoPost(parsed *domain.ParsedReceipt) bool {
	return parsed != nil && parsed.TotalAmount != nil && parsed.TotalAmount.LessThan(p.Limit)
}
