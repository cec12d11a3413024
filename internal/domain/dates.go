package domain

import "time"

// DateLayout is the storage format of UTC calendar dates.
const DateLayout = "2006-01-02"

// UTCDate returns the UTC calendar date of t as YYYY-MM-DD.
func UTCDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// PreviousDate returns the calendar day before date. ok is false when date
// is not a valid YYYY-MM-DD string.
func PreviousDate(date string) (string, bool) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", false
	}
	return d.AddDate(0, 0, -1).Format(DateLayout), true
}

// StorageTime normalises t to the precision and zone persisted by the stores.
func StorageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
