package models

import "time"

const dayLayout = "2006-01-02"

// Day - tanggal kalender antrian, format YYYY-MM-DD
type Day string

// DayOf - tanggal kalender t menurut zona waktu loc (nil = UTC)
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(dayLayout))
}

func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", err
	}
	return Day(s), nil
}

func (d Day) String() string {
	return string(d)
}
