package core

// Installment is one slice of an installment plan.
type Installment struct {
	Index  int
	Amount Money
	Date   Date
}

// SplitInstallments divides total into count monthly installments starting
// at start. Every installment gets total/count and the last one also gets
// the remainder, so the amounts always add up to total. Dates are computed
// from start, not from the previous installment.
func SplitInstallments(total Money, count int, start Date) ([]Installment, error) {
	if count < 2 || count > MaxInstallments {
		return nil, ErrInvalidInstallmentCount
	}
	if err := total.Validate(); err != nil {
		return nil, err
	}

	base := total.Cents / int64(count)
	rem := total.Cents % int64(count)

	out := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount += rem
		}
		out[i] = Installment{
			Index:  i + 1,
			Amount: Money{Cents: amount},
			Date:   start.AddMonthsClamped(i),
		}
	}
	return out, nil
}
