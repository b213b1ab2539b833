package view

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount as dollars with two decimals, e.g. $25.00.
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + moneyPrinter.Sprintf("$%.2f", -v)
	}
	return moneyPrinter.Sprintf("$%.2f", v)
}
