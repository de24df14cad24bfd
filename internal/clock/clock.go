package clock

import (
	"sync"
	"time"

	"backend-antrian-klinik/internal/models"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Snapshot - satu pembacaan jam per request; semua query hari ini memakai Day ini
type Snapshot struct {
	Now time.Time
	Day models.Day
}

// Snap baca jam sekali lalu turunkan tanggal kalender di loc
func Snap(c Clock, loc *time.Location) Snapshot {
	return At(c.Now(), loc)
}

func At(t time.Time, loc *time.Location) Snapshot {
	return Snapshot{Now: t.UTC(), Day: models.DayOf(t, loc)}
}

// Manual - jam yang bisa diatur, untuk test
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
