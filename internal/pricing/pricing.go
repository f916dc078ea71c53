// Package pricing holds the pure money rules of the booking flow: coupon
// discounts, property deposits, night counts and rating averages.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/property-booking/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Discount returns the discount a coupon of the given type and value grants
// on orderAmount. The result is always within [0, orderAmount].
func Discount(t model.DiscountType, value, orderAmount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch t {
	case model.DiscountPercentage:
		d = orderAmount.Mul(value).Div(hundred).Round(2)
	case model.DiscountFixedAmount:
		d = value
	}
	if d.GreaterThan(orderAmount) {
		d = orderAmount
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}

// Deposit returns the upfront amount a property requires for its policy.
func Deposit(fullPrice decimal.Decimal, t model.DiscountType, value decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch t {
	case model.DiscountPercentage:
		d = fullPrice.Mul(value).Div(hundred).Round(2)
	case model.DiscountFixedAmount:
		d = value
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Nights counts started days between checkIn and checkOut. Non-positive
// ranges return 0.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

// AverageRating returns the mean of ratings rounded to two decimals and the
// number of ratings. An empty slice yields zero for both.
func AverageRating(ratings []int) (decimal.Decimal, int) {
	if len(ratings) == 0 {
		return decimal.Zero, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
	return avg, len(ratings)
}

// MinorUnits converts an amount to the smallest currency unit (halalas, cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
