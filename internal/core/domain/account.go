package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Well-known account codes from the seeded chart of accounts. The receipt
// pipeline books every parsed total against this expense/cash pair.
const (
	CashAccountCode    = "1000"
	ExpenseAccountCode = "5000"
)

// Account represents a ledger account. Accounts are pure value records; only
// name, description and the active flag may change after creation.
type Account struct {
	AccountID   string      `json:"accountID"`   // Primary key (UUID)
	Code        string      `json:"code"`        // Unique short code, e.g. "1000"
	Name        string      `json:"name"`        // User-visible name
	AccountType AccountType `json:"accountType"` // ASSET, LIABILITY, etc.
	Description string      `json:"description"` // Nullable user description
	IsActive    bool        `json:"isActive"`    // Soft delete / status flag
	AuditFields
}
