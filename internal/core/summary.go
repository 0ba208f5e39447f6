package core

import "github.com/shopspring/decimal"

// Summary is the aggregate of a full transaction collection.
type Summary struct {
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Balance  decimal.Decimal
	// Skipped counts rows whose amount could not be parsed.
	Skipped int
}

// Summarize sums inflows and outflows. Rows with an unknown kind contribute
// to neither total; rows with an unparseable amount are skipped.
func Summarize(txs []Transaction) Summary {
	s := Summary{TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	for _, t := range txs {
		amount, err := t.ParsedAmount()
		if err != nil {
			s.Skipped++
			continue
		}
		switch t.NormalizedKind() {
		case KindInflow:
			s.TotalIn = s.TotalIn.Add(amount)
		case KindOutflow:
			s.TotalOut = s.TotalOut.Add(amount)
		}
	}
	s.Balance = s.TotalIn.Sub(s.TotalOut)
	return s
}
