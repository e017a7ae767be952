// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOnly memotong jam dari t sesuai kalender di loc, lalu disimpan sebagai 00:00 UTC
// (kolom DATE di Postgres tidak punya zona).
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today = tanggal kalender "sekarang" di timezone aplikasi.
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOnly(now, loc)
}

// StartOfDayIn mengembalikan instant 00:00 di loc untuk tanggal d (hasil DateOnly).
func StartOfDayIn(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate menerima "YYYY-MM-DD" atau RFC3339; hasilnya selalu date-only UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t, loc), nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
