package helper

import (
	"strings"
	"time"
)

// IsQueueOpen cek apakah now berada di jam buka provider (waktu lokal loc).
// Jam kosong berarti provider buka sepanjang hari.
func IsQueueOpen(now time.Time, jamBuka, jamTutup string, loc *time.Location) bool {
	if jamBuka == "" || jamTutup == "" {
		return true
	}
	if loc == nil {
		loc = time.UTC
	}

	now = now.In(loc)

	// Database TIME format bisa HH:MM:SS atau HH:MM
	layout := "15:04:05"

	// Normalize format - tambahkan :00 jika cuma HH:MM
	if strings.Count(jamBuka, ":") == 1 {
		jamBuka += ":00"
	}
	if strings.Count(jamTutup, ":") == 1 {
		jamTutup += ":00"
	}

	openTime, err := time.ParseInLocation(layout, jamBuka, loc)
	if err != nil {
		return false
	}

	closeTime, err := time.ParseInLocation(layout, jamTutup, loc)
	if err != nil {
		return false
	}

	// Set tanggal sesuai now
	openTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		openTime.Hour(), openTime.Minute(), openTime.Second(),
		0, loc,
	)

	closeTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		closeTime.Hour(), closeTime.Minute(), closeTime.Second(),
		0, loc,
	)

	// Jam tutup melewati tengah malam, contoh: buka 22:00, tutup 02:00
	if closeTime.Before(openTime) {
		if now.Before(closeTime) {
			// masih periode yang dibuka kemarin
			openTime = openTime.Add(-24 * time.Hour)
		} else {
			closeTime = closeTime.Add(24 * time.Hour)
		}
	}

	return !now.Before(openTime) && now.Before(closeTime)
}

// ValidClock - format jam "HH:MM" atau "HH:MM:SS", kosong juga valid
func ValidClock(s string) bool {
	if s == "" {
		return true
	}
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	_, err := time.Parse("15:04:05", s)
	return err == nil
}
