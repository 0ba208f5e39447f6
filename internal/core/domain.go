package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	KindInflow  Kind = "entrada"
	KindOutflow Kind = "saida"
)

type (
	// Kind is a normalised transaction type.
	Kind string

	// Transaction is one stored ledger row. Kind, Month and Amount are kept
	// exactly as the store returned them; use NormalizedKind and ParsedAmount
	// before doing arithmetic.
	Transaction struct {
		ID          int64
		Kind        string
		Month       string
		Amount      string
		Description string
	}

	// NewTransaction holds the fields of a row about to be inserted.
	NewTransaction struct {
		Kind        string
		Month       string
		Amount      decimal.Decimal
		Description string
	}
)

// Months lists the month labels offered by the entry form, blank included.
var Months = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro", "",
}

// Kinds lists the recognised kinds in form order.
var Kinds = []Kind{KindInflow, KindOutflow}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// NormalizeKind trims surrounding whitespace and lower-cases with full Unicode
// case mapping. Accents are kept: "Saída" normalises to "saída", which is not
// a known kind. Unknown values are returned normalised, not rejected.
func NormalizeKind(s string) Kind {
	// a Caser carries state; build one per call
	return Kind(cases.Lower(language.Und).String(strings.TrimSpace(s)))
}

// IsKnown reports whether k is one of the kinds the summary counts.
func (k Kind) IsKnown() bool {
	return k == KindInflow || k == KindOutflow
}

// Label returns the display label used by the form selector.
func (k Kind) Label() string {
	switch k {
	case KindInflow:
		return "Entrada"
	case KindOutflow:
		return "Saída"
	default:
		return string(k)
	}
}

// NormalizedKind returns the row kind in its comparable form.
func (t Transaction) NormalizedKind() Kind {
	return NormalizeKind(t.Kind)
}

// ParsedAmount parses the stored amount. Rows written by other tools may hold
// NULL or free text; the caller decides whether to skip or reject them.
func (t Transaction) ParsedAmount() (decimal.Decimal, error) {
	return ParseAmount(t.Amount)
}

// Validate checks what the entry widget enforces. The store itself accepts
// anything.
func (n NewTransaction) Validate() error {
	if n.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
