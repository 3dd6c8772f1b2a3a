package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowKeys(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

	require.Equal(t, 202608, MonthKey(at))
	require.Equal(t, 20260831, DayKey(at))
	require.Equal(t, 2026083114, HourKey(at))
}

func TestWindowKeysUseUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	local := time.Date(2026, 9, 1, 2, 0, 0, 0, loc)

	// 02:00 UTC+5 is still 21:00 on Aug 31 in UTC.
	require.Equal(t, 202608, MonthKey(local))
	require.Equal(t, 20260831, DayKey(local))
	require.Equal(t, 2026083121, HourKey(local))
}

func TestWindowKeyOrderingMatchesTime(t *testing.T) {
	earlier := time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)
	later := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Less(t, MonthKey(earlier), MonthKey(later))
	require.Less(t, DayKey(earlier), DayKey(later))
	require.Less(t, HourKey(earlier), HourKey(later))
}

func TestWindowKeyDispatch(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	require.Equal(t, HourKey(at), WindowKey(WindowHourly, at))
	require.Equal(t, DayKey(at), WindowKey(WindowDaily, at))
	require.Equal(t, MonthKey(at), WindowKey(WindowMonthly, at))
}

func TestWindowString(t *testing.T) {
	require.Equal(t, "hourly", WindowHourly.String())
	require.Equal(t, "daily", WindowDaily.String())
	require.Equal(t, "monthly", WindowMonthly.String())
	require.Equal(t, "unknown", Window(99).String())
}
