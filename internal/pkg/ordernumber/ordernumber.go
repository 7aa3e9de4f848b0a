// Package ordernumber generates and checks human-readable order numbers.
//
// A number is the sale date as YYMMDD, the order id zero-padded to eight digits and a
// Luhn check digit, so a mistyped number is rejected before any lookup.
package ordernumber

import (
	"fmt"
	"time"
	"unicode"
)

// Length is the number of digits in a generated order number.
const Length = 15

const idModulo = 100_000_000

// Generate builds the order number of orderID for a sale sealed at t.
func Generate(orderID int64, t time.Time) string {
	payload := fmt.Sprintf("%s%08d", t.UTC().Format("060102"), orderID%idModulo)
	return payload + string(rune('0'+checkDigit(payload)))
}

// Validate checks length, digits and the Luhn checksum.
func Validate(number string) bool {
	if len(number) != Length {
		return false
	}
	return luhnValid(number)
}

func luhnValid(number string) bool {
	if number == "" {
		return false
	}

	var sum int
	var alt bool
	for i := len(number) - 1; i >= 0; i-- {
		r := rune(number[i])
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if alt {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alt = !alt
	}

	return sum%10 == 0
}

// checkDigit returns the digit that makes payload+digit pass the Luhn check.
func checkDigit(payload string) int {
	var sum int
	alt := true
	for i := len(payload) - 1; i >= 0; i-- {
		digit := int(payload[i] - '0')
		if alt {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alt = !alt
	}
	return (10 - sum%10) % 10
}
