package ledger

import "time"

const dayLayout = "2006-01-02"

// Calendar maps instants to calendar days in a fixed reference zone. Per-day
// gates key their records by the day string so the store's unique
// constraints enforce them.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

func (c Calendar) Day(t time.Time) string {
	return t.In(c.location()).Format(dayLayout)
}

func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.location())
}

func (c Calendar) location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
