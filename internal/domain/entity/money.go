package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/bankapp/ledger-core/internal/domain/error"
)

// Monetary amounts are carried as int64 paise (hundredths) end to end.
// Binary floating point is never used for balances or amounts.

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

// ParseAmount validates a string amount and converts it to hundredths.
// Uses a string-based approach to sidestep floating-point precision:
// - no decimal point: append "00" ("10" -> 1000)
// - one digit after the point: append "0" ("10.5" -> 1050)
// - two digits after the point: strip the point ("10.15" -> 1015)
// Returns an error for negative, empty, or malformed input.
func ParseAmount(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) == 0 {
		return 0, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	if strings.HasPrefix(amount, "-") {
		return 0, errs.ErrNegativeAmount
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("%w: invalid number format", errs.ErrInvalidAmount)
	}

	var integerValue string
	if len(parts) == 1 {
		integerValue = parts[0] + "00"
	} else {
		switch len(parts[1]) {
		case 0:
			// Like "10."
			integerValue = parts[0] + "00"
		case 1:
			integerValue = parts[0] + parts[1] + "0"
		case 2:
			integerValue = parts[0] + parts[1]
		default:
			return 0, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
		}
	}

	value, err := strconv.ParseInt(integerValue, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, err.Error())
	}

	return value, nil
}

// ParsePositiveAmount parses an amount and additionally rejects zero.
// Ledger mutations require strictly positive amounts.
func ParsePositiveAmount(amount string) (int64, error) {
	cents, err := ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	if cents == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", errs.ErrInvalidAmount)
	}
	return cents, nil
}

// FormatAmount converts an amount in hundredths to a decimal string.
// For example 1015 becomes "10.15" and 1000 becomes "10.00".
func FormatAmount(cents int64) string {
	isNegative := cents < 0
	if isNegative {
		cents = -cents
	}

	amountStr := strconv.FormatInt(cents, 10)
	for len(amountStr) < 3 {
		amountStr = "0" + amountStr
	}

	decimalPos := len(amountStr) - 2
	wholePart := amountStr[:decimalPos]
	decimalPart := amountStr[decimalPos:]

	if isNegative {
		return "-" + wholePart + "." + decimalPart
	}
	return wholePart + "." + decimalPart
}

// AmountToDecimal converts an amount in hundredths to an exact decimal value
// for event payloads and reporting.
func AmountToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
