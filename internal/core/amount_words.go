package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// numberToWords spells n in the Indian system (Thousand, Lakh, Crore). Zero is "".
func numberToWords(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 20:
		return ones[n]
	case n < 100:
		return strings.TrimSpace(tens[n/10] + " " + ones[n%10])
	case n < 1000:
		return joinWords(ones[n/100]+" Hundred", numberToWords(n%100))
	case n < 100000:
		return joinWords(numberToWords(n/1000)+" Thousand", numberToWords(n%1000))
	case n < 10000000:
		return joinWords(numberToWords(n/100000)+" Lakh", numberToWords(n%100000))
	default:
		return joinWords(numberToWords(n/10000000)+" Crore", numberToWords(n%10000000))
	}
}

func joinWords(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}

// AmountInWords renders a rupee amount for printing, e.g.
// "Twenty Two Thousand Three Hundred Eighty Six Rupees Only".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	rupees := amount.Truncate(0)
	paise := amount.Sub(rupees).Mul(hundred).IntPart()

	var parts []string
	if r := rupees.IntPart(); r > 0 {
		parts = append(parts, numberToWords(r)+" Rupees")
	}
	if paise > 0 {
		parts = append(parts, numberToWords(paise)+" Paise")
	}
	if len(parts) == 0 {
		return "Zero Rupees Only"
	}
	return strings.Join(parts, " and ") + " Only"
}
