package order

import "github.com/shopspring/decimal"

// Pricing holds the order-level constants used when computing totals.
type Pricing struct {
	DeliveryFee        decimal.Decimal
	DeliveryMinutes    int
	DefaultPrepMinutes int
}

func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee:        decimal.RequireFromString("5.00"),
		DeliveryMinutes:    30,
		DefaultPrepMinutes: 20,
	}
}

// FeeFor returns the delivery surcharge for a new order.
func (p Pricing) FeeFor(isDelivery bool) decimal.Decimal {
	if !isDelivery {
		return decimal.Zero
	}
	return p.DeliveryFee
}

type Totals struct {
	Subtotal              decimal.Decimal
	DeliveryFee           decimal.Decimal
	TotalAmount           decimal.Decimal
	EstimatedDeliveryTime *int
}

// LineTotal rounds half-up to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Compute derives order totals from its lines. deliveryFee is the fee stored
// on the order. No lines means zero amounts and no estimate.
func (p Pricing) Compute(lines []*Line, isDelivery bool, deliveryFee decimal.Decimal) Totals {
	if len(lines) == 0 {
		return Totals{
			Subtotal:    decimal.Zero,
			DeliveryFee: deliveryFee,
			TotalAmount: decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	maxPrep := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)

		prep := p.DefaultPrepMinutes
		if l.PreparationTime != nil {
			prep = *l.PreparationTime
		}
		if prep > maxPrep {
			maxPrep = prep
		}
	}

	eta := maxPrep
	if isDelivery {
		eta += p.DeliveryMinutes
	}

	subtotal = subtotal.Round(2)
	return Totals{
		Subtotal:              subtotal,
		DeliveryFee:           deliveryFee,
		TotalAmount:           subtotal.Add(deliveryFee).Round(2),
		EstimatedDeliveryTime: &eta,
	}
}

func (o *Order) apply(t Totals) {
	o.Subtotal = t.Subtotal
	o.DeliveryFee = t.DeliveryFee
	o.TotalAmount = t.TotalAmount
	o.EstimatedDeliveryTime = t.EstimatedDeliveryTime
}

func (o *Order) lineFor(itemID int64) *Line {
	for _, l := range o.Lines {
		if l.ItemID == itemID {
			return l
		}
	}
	return nil
}

func (o *Order) removeLine(lineID int64) *Line {
	for i, l := range o.Lines {
		if l.ID == lineID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return l
		}
	}
	return nil
}

const notesSeparator = " | "

func mergeNotes(existing, extra *string) *string {
	if extra == nil || *extra == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		v := *extra
		return &v
	}
	v := *existing + notesSeparator + *extra
	return &v
}
