// Package pricing holds the one total formula shared by the cart quote and
// checkout. Amounts are whole currency units.
package pricing

import (
	"math"

	"everesthemp-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type Rules struct {
	// StandardFee is charged for standard shipping unless the subtotal is
	// above FreeShippingThreshold.
	StandardFee           int64
	ExpressFee            int64
	FreeShippingThreshold int64
	CODSurcharge          int64
	VATRate               decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		StandardFee:           0,
		ExpressFee:            250,
		FreeShippingThreshold: 5000,
		CODSurcharge:          100,
		VATRate:               decimal.RequireFromString("0.13"),
	}
}

type Line struct {
	Price    int64
	Quantity int
}

// MaxAmount is the largest total an order may carry. It leaves room for the
// conversion to paisa at the payment gateway.
const MaxAmount int64 = math.MaxInt64 / 100

var maxAmount = decimal.NewFromInt(MaxAmount)

func tooLarge() error {
	return domain.Errorf(domain.ErrValidation, "order amount exceeds %d", MaxAmount)
}

func Subtotal(lines []Line) (int64, error) {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Price < 0 || l.Quantity < 0 {
			return 0, domain.Errorf(domain.ErrValidation, "line price and quantity must not be negative")
		}
		sum = sum.Add(decimal.NewFromInt(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
		if sum.GreaterThan(maxAmount) {
			return 0, tooLarge()
		}
	}
	return sum.IntPart(), nil
}

func OrderLines(items []domain.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}

func (r Rules) Shipping(subtotal int64, method domain.ShippingMethod) int64 {
	if method == domain.ShippingExpress {
		return r.ExpressFee
	}
	if r.FreeShippingThreshold > 0 && subtotal > r.FreeShippingThreshold {
		return 0
	}
	return r.StandardFee
}

// Tax applies VAT to the goods only, never to shipping or the COD fee.
func (r Rules) Tax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(r.VATRate).Round(0).IntPart()
}

func (r Rules) Quote(lines []Line, ship domain.ShippingMethod, pay domain.PaymentMethod) (domain.Breakdown, error) {
	sub, err := Subtotal(lines)
	if err != nil {
		return domain.Breakdown{}, err
	}
	tax := decimal.NewFromInt(sub).Mul(r.VATRate).Round(0)
	if tax.GreaterThan(maxAmount) {
		return domain.Breakdown{}, tooLarge()
	}

	b := domain.Breakdown{Subtotal: sub, Tax: tax.IntPart()}
	b.Shipping = r.Shipping(b.Subtotal, ship)
	if pay == domain.PaymentCOD {
		b.CODFee = r.CODSurcharge
	}
	total := decimal.Sum(decimal.NewFromInt(b.Subtotal), decimal.NewFromInt(b.Shipping), tax, decimal.NewFromInt(b.CODFee))
	if total.GreaterThan(maxAmount) {
		return domain.Breakdown{}, tooLarge()
	}
	b.Total = total.IntPart()
	return b, nil
}
