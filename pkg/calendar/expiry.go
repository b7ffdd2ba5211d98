package calendar

import "time"

// EnergyExpiry returns the last trading day for an energy contract: three
// business days before the 25th of the month preceding delivery.
//
// Only weekends are skipped. Exchange holidays are not modelled.
func EnergyExpiry(year int, delivery time.Month) time.Time {
	// Date normalises month 0 to December of the previous year.
	date := Date(year, delivery-1, 25)
	for business := 0; business < 3; {
		date = date.AddDate(0, 0, -1)
		if isBusinessDay(date) {
			business++
		}
	}
	return date
}

// EquityIndexExpiry returns the third Friday of the contract month.
func EquityIndexExpiry(year int, month time.Month) time.Time {
	first := Date(year, month, 1)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
