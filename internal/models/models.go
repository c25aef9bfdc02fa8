package models

import "time"

// Kind classifies a transaction as money coming in or going out.
type Kind string

const (
	KindIncome  Kind = "Income"
	KindExpense Kind = "Expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Category tags the purpose of a transaction.
type Category string

const (
	CategoryFood      Category = "Food"
	CategoryRent      Category = "Rent"
	CategoryTransport Category = "Transport"
	CategorySalary    Category = "Salary"
	CategoryUtilities Category = "Utilities"
	CategoryOther     Category = "Other"
)

// Categories lists all known categories in display order.
var Categories = []Category{
	CategoryFood,
	CategoryRent,
	CategoryTransport,
	CategorySalary,
	CategoryUtilities,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction represents a single immutable income or expense record
// belonging to one user. Date carries no time component.
type Transaction struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Kind        Kind      `json:"kind"`
	Amount      Cents     `json:"amount"`
}
