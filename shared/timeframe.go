package shared

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DateLayout is the format layout for parsing and rendering bar dates.
	DateLayout = "2006-01-02 15:04:05"
	// FileTimestampLayout is the format layout for timestamps embedded in artifact names.
	FileTimestampLayout = "20060102_150405"
)

// Timeframe represents the market data time period. Its numeric value is the
// period duration in minutes.
type Timeframe int

const (
	OneMinute     Timeframe = 1
	TwoMinute     Timeframe = 2
	ThreeMinute   Timeframe = 3
	FourMinute    Timeframe = 4
	FiveMinute    Timeframe = 5
	SixMinute     Timeframe = 6
	TenMinute     Timeframe = 10
	TwelveMinute  Timeframe = 12
	FifteenMinute Timeframe = 15
	TwentyMinute  Timeframe = 20
	ThirtyMinute  Timeframe = 30
	OneHour       Timeframe = 60
	TwoHour       Timeframe = 120
	ThreeHour     Timeframe = 180
	FourHour      Timeframe = 240
	SixHour       Timeframe = 360
	EightHour     Timeframe = 480
	TwelveHour    Timeframe = 720
	OneDay        Timeframe = 1440
	OneWeek       Timeframe = 10080
	OneMonth      Timeframe = 43200
)

// timeframeCodes maps canonical period codes to their timeframes.
var timeframeCodes = map[string]Timeframe{
	"M1":  OneMinute,
	"M2":  TwoMinute,
	"M3":  ThreeMinute,
	"M4":  FourMinute,
	"M5":  FiveMinute,
	"M6":  SixMinute,
	"M10": TenMinute,
	"M12": TwelveMinute,
	"M15": FifteenMinute,
	"M20": TwentyMinute,
	"M30": ThirtyMinute,
	"H1":  OneHour,
	"H2":  TwoHour,
	"H3":  ThreeHour,
	"H4":  FourHour,
	"H6":  SixHour,
	"H8":  EightHour,
	"H12": TwelveHour,
	"D1":  OneDay,
	"W1":  OneWeek,
	"MN1": OneMonth,
}

// SupportedTimeframes returns the canonical period codes sorted by duration.
func SupportedTimeframes() []string {
	codes := make([]string, 0, len(timeframeCodes))
	for code := range timeframeCodes {
		codes = append(codes, code)
	}

	sort.Slice(codes, func(i, j int) bool {
		return timeframeCodes[codes[i]] < timeframeCodes[codes[j]]
	})

	return codes
}

// ParseTimeframe resolves a period code like "M5", "H4" or "D1" to its
// timeframe. The code is case-insensitive and surrounding whitespace is
// ignored.
func ParseTimeframe(code string) (Timeframe, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	timeframe, ok := timeframeCodes[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q, supported timeframes are %s", ErrUnsupportedTimeframe,
			code, strings.Join(SupportedTimeframes(), ", "))
	}

	return timeframe, nil
}

// String stringifies the provided timeframe to its canonical period code.
func (t Timeframe) String() string {
	switch {
	case t == OneMonth:
		return "MN1"
	case t == OneWeek:
		return "W1"
	case t == OneDay:
		return "D1"
	case t >= OneHour && t%OneHour == 0:
		return fmt.Sprintf("H%d", t/OneHour)
	case t > 0:
		return fmt.Sprintf("M%d", t)
	default:
		return "unknown"
	}
}

// Minutes returns the timeframe duration in minutes.
func (t Timeframe) Minutes() int {
	return int(t)
}
