package common

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ruPrinter = message.NewPrinter(language.Russian)

// FormatRubles renders kopecks with ru grouping and decimal comma, e.g. "1 234,50".
func FormatRubles(kopecks int64) string {
	return ruPrinter.Sprintf("%.2f", decimal.New(kopecks, -2).InexactFloat64())
}

// Percent returns part/whole*100 rounded to one decimal place; zero when whole is zero.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), 4).
		Round(1).
		InexactFloat64()
}

// KopecksToUnits converts minor units to a decimal amount in rubles.
func KopecksToUnits(kopecks int64) decimal.Decimal {
	return decimal.New(kopecks, -2)
}

// UnitsToKopecks rounds a ruble amount to the nearest kopeck.
func UnitsToKopecks(units decimal.Decimal) int64 {
	return units.Shift(2).Round(0).IntPart()
}
