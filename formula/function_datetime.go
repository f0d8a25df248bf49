package formula

import (
	"strings"
	"time"

	"github.com/vegasq/tabular/data"
)

// excelEpochOffset is the distance in seconds between the Unix epoch
// and the Excel serial-date epoch (1899-12-30T00:00:00Z).
const excelEpochOffset = 2209161600

func init() {
	register(FunctionNow, "NOW", Fixed(0), false, applyNow)
	register(FunctionToUnixTime, "TO.UNIX", Fixed(1), true, applyToUnixTime)
	register(FunctionFromUnixTime, "FROM.UNIX", Fixed(1), true, applyFromUnixTime)
	register(FunctionToISO8601, "TO.ISO8601", Fixed(1), true, applyToISO8601)
	register(FunctionFromISO8601, "FROM.ISO8601", Fixed(1), true, applyFromISO8601)
	register(FunctionToExcelDate, "TO.EXCELDATE", Fixed(1), true, applyToExcelDate)
	register(FunctionFromExcelDate, "FROM.EXCELDATE", Fixed(1), true, applyFromExcelDate)
	register(FunctionUTCDate, "UTC.DATE", Fixed(3), true, applyUTCDate)
	register(FunctionUTCDay, "UTC.DAY", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Day()) }))
	register(FunctionUTCMonth, "UTC.MONTH", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Month()) }))
	register(FunctionUTCYear, "UTC.YEAR", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Year()) }))
	register(FunctionUTCHour, "UTC.HOUR", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Hour()) }))
	register(FunctionUTCMinute, "UTC.MINUTE", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Minute()) }))
	register(FunctionUTCSecond, "UTC.SECOND", Fixed(1), true, dateComponent(func(t time.Time) int64 { return int64(t.Second()) }))
	register(FunctionDuration, "DURATION", Fixed(2), true, applyDuration)
	register(FunctionAfter, "AFTER", Fixed(2), true, applyAfter)
	register(FunctionParseNumber, "PARSE.NUMBER", Between(1, 3), true, applyParseNumber)
}

func applyNow(args []data.Value) data.Value {
	return data.Date(time.Now().Unix())
}

func applyToUnixTime(args []data.Value) data.Value {
	secs, ok := args[0].DateValue()
	if !ok {
		return data.Invalid
	}
	return data.Int(secs)
}

func applyFromUnixTime(args []data.Value) data.Value {
	secs, ok := args[0].IntValue()
	if !ok {
		return data.Invalid
	}
	return data.Date(secs)
}

func applyToISO8601(args []data.Value) data.Value {
	secs, ok := args[0].DateValue()
	if !ok {
		return data.Invalid
	}
	return data.String(time.Unix(secs, 0).UTC().Format(time.RFC3339))
}

func applyFromISO8601(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Date-only form.
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return data.Invalid
		}
	}
	return data.Date(t.Unix())
}

func applyToExcelDate(args []data.Value) data.Value {
	secs, ok := args[0].DateValue()
	if !ok {
		return data.Invalid
	}
	return data.Double(float64(secs+excelEpochOffset) / 86400.0)
}

func applyFromExcelDate(args []data.Value) data.Value {
	serial, ok := args[0].DoubleValue()
	if !ok {
		return data.Invalid
	}
	return data.Date(int64(serial*86400.0) - excelEpochOffset)
}

func applyUTCDate(args []data.Value) data.Value {
	year, yok := args[0].IntValue()
	month, mok := args[1].IntValue()
	day, dok := args[2].IntValue()
	if !yok || !mok || !dok {
		return data.Invalid
	}
	t := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	return data.Date(t.Unix())
}

func dateComponent(extract func(time.Time) int64) func([]data.Value) data.Value {
	return func(args []data.Value) data.Value {
		secs, ok := args[0].DateValue()
		if !ok {
			return data.Invalid
		}
		return data.Int(extract(time.Unix(secs, 0).UTC()))
	}
}

// applyDuration returns the seconds from the first date to the second.
func applyDuration(args []data.Value) data.Value {
	from, fok := args[0].DateValue()
	to, tok := args[1].DateValue()
	if !fok || !tok {
		return data.Invalid
	}
	return data.Int(to - from)
}

// applyAfter shifts a date forward by a number of seconds.
func applyAfter(args []data.Value) data.Value {
	secs, sok := args[0].DateValue()
	delta, dok := args[1].IntValue()
	if !sok || !dok {
		return data.Invalid
	}
	return data.Date(secs + delta)
}

// applyParseNumber parses localized numeric text: PARSE.NUMBER(text;
// decimalSeparator; thousandsSeparator).
func applyParseNumber(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	decimal := "."
	thousands := ","
	if len(args) > 1 {
		decimal, ok = args[1].StringValue()
		if !ok {
			return data.Invalid
		}
	}
	if len(args) > 2 {
		thousands, ok = args[2].StringValue()
		if !ok {
			return data.Invalid
		}
	}
	normalized := s
	if thousands != "" {
		normalized = strings.ReplaceAll(normalized, thousands, "")
	}
	if decimal != "" && decimal != "." {
		normalized = strings.ReplaceAll(normalized, decimal, ".")
	}
	if f, ok := data.String(normalized).DoubleValue(); ok {
		return data.Double(f)
	}
	return data.Invalid
}
