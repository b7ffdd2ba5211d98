package calendar

import (
	"fmt"
	"strings"
	"time"
)

// monthCodes holds the exchange letter for January through December.
var monthCodes = [12]string{"F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// MonthCode returns the futures month letter for m, or "" if m is not a
// calendar month.
func MonthCode(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthCodes[m-1]
}

// MonthFromCode is the inverse of MonthCode.
func MonthFromCode(code string) (time.Month, bool) {
	code = strings.ToUpper(code)
	for i, c := range monthCodes {
		if c == code {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// FormatSymbol builds an exchange ticker such as "CLZ3".
//
// digits selects the year width: 1 (the exchange convention, year mod 10)
// or 2 (year mod 100, zero padded). Values other than 2 are treated as 1.
// One-digit years collide for contracts a decade apart.
func FormatSymbol(base string, year int, month time.Month, digits int) string {
	if digits == 2 {
		return fmt.Sprintf("%s%s%02d", base, MonthCode(month), year%100)
	}
	return fmt.Sprintf("%s%s%d", base, MonthCode(month), year%10)
}
