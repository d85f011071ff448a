// Package pricing converts vendor prices into the local store
// currency.
package pricing

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidInput rejects conversions whose inputs make no commercial
// sense. It belongs to the validation class of failures: callers are
// expected to catch it at configuration time, before any run loop.
var ErrInvalidInput = errors.New("invalid price conversion input")

// Convert applies the exchange rate and markup to an amount in the
// source currency and rounds half away from zero at the given decimal
// precision. It is pure: same inputs, same output, no side effects.
//
//	Convert(100, 4.97, 20, 2) == 596.4
func Convert(amount, rate, markupPercent float64, precision int) (float64, error) {
	if amount < 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, errors.Wrapf(ErrInvalidInput, "amount %v must be a non-negative finite number", amount)
	}
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return 0, errors.Wrapf(ErrInvalidInput, "rate %v must be a positive finite number", rate)
	}
	if markupPercent <= -100 || math.IsInf(markupPercent, 0) || math.IsNaN(markupPercent) {
		return 0, errors.Wrapf(ErrInvalidInput, "markup %v%% must be a finite number above -100", markupPercent)
	}
	if precision < 0 {
		return 0, errors.Wrapf(ErrInvalidInput, "precision %d must not be negative", precision)
	}

	converted := amount * rate * (1 + markupPercent/100)

	shift := math.Pow(10, float64(precision))
	return math.Round(converted*shift) / shift, nil
}
