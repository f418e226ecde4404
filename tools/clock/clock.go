// Package clock provides datetime tools for LLM tool calling: current time,
// formatting, arithmetic, differences and weekday queries.
package clock

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

const (
	// DateTimeLayout is the default layout for datetime arguments.
	DateTimeLayout = "2006-01-02 15:04:05"

	// DateLayout is the default layout for date arguments.
	DateLayout = "2006-01-02"

	stampLayout = "2006-01-02 15:04:05 MST"
)

var now = time.Now

// All returns one instance of every clock tool.
func All() []promptic.Tool {
	return []promptic.Tool{
		&CurrentTime{},
		&FormatDateTime{},
		&AddTime{},
		&TimeDifference{},
		&Weekend{},
		&DayOfWeek{},
	}
}

// Register adds every clock tool to the registry.
func Register(r *promptic.Registry) {
	for _, tool := range All() {
		r.Register(tool)
	}
}

// CurrentTime reports the current time in a requested timezone.
type CurrentTime struct{}

func (t *CurrentTime) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "GetCurrentTime",
		Description: "Get the current date and time in a given timezone",
		Parameters: map[string]*promptic.Parameter{
			"timezone": {
				Type:        promptic.TypeString,
				Description: "IANA timezone name such as Asia/Tokyo. Defaults to UTC",
			},
		},
	}
}

func (t *CurrentTime) Run(ctx context.Context, args map[string]any) (any, error) {
	tz := stringArg(args, "timezone", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, goerr.Wrap(err, "unknown timezone", goerr.V("timezone", tz))
	}
	return now().In(loc).Format(stampLayout), nil
}

// FormatDateTime re-renders a datetime string in another layout.
type FormatDateTime struct{}

func (t *FormatDateTime) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "FormatDateTime",
		Description: "Convert a datetime string from one format to another",
		Parameters: map[string]*promptic.Parameter{
			"datetime": {
				Type:        promptic.TypeString,
				Description: "The datetime string to convert",
			},
			"input_format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of the input. Defaults to " + DateTimeLayout,
			},
			"output_format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of the output. Defaults to " + DateLayout,
			},
		},
		Required: []string{"datetime"},
	}
}

func (t *FormatDateTime) Run(ctx context.Context, args map[string]any) (any, error) {
	value := stringArg(args, "datetime", "")
	inputFormat := stringArg(args, "input_format", DateTimeLayout)
	outputFormat := stringArg(args, "output_format", DateLayout)

	parsed, err := time.Parse(inputFormat, value)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse datetime",
			goerr.V("datetime", value),
			goerr.V("format", inputFormat),
		)
	}
	return parsed.Format(outputFormat), nil
}

// AddTime shifts a datetime by days, hours and minutes.
type AddTime struct{}

func (t *AddTime) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "AddTime",
		Description: "Add days, hours and minutes to a datetime",
		Parameters: map[string]*promptic.Parameter{
			"datetime": {
				Type:        promptic.TypeString,
				Description: "The datetime to shift",
			},
			"days": {
				Type:        promptic.TypeNumber,
				Description: "Number of days to add, may be negative",
			},
			"hours": {
				Type:        promptic.TypeNumber,
				Description: "Number of hours to add, may be negative",
			},
			"minutes": {
				Type:        promptic.TypeNumber,
				Description: "Number of minutes to add, may be negative",
			},
			"format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of the datetime. Defaults to " + DateTimeLayout,
			},
		},
		Required: []string{"datetime"},
	}
}

func (t *AddTime) Run(ctx context.Context, args map[string]any) (any, error) {
	value := stringArg(args, "datetime", "")
	layout := stringArg(args, "format", DateTimeLayout)

	parsed, err := time.Parse(layout, value)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse datetime",
			goerr.V("datetime", value),
			goerr.V("format", layout),
		)
	}

	delta := time.Duration(numberArg(args, "days")*24*float64(time.Hour)) +
		time.Duration(numberArg(args, "hours")*float64(time.Hour)) +
		time.Duration(numberArg(args, "minutes")*float64(time.Minute))

	return parsed.Add(delta).Format(layout), nil
}

// TimeDifference computes the span between two datetimes.
type TimeDifference struct{}

func (t *TimeDifference) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "GetTimeDifference",
		Description: "Calculate the difference between two datetimes",
		Parameters: map[string]*promptic.Parameter{
			"datetime1": {
				Type:        promptic.TypeString,
				Description: "The first datetime",
			},
			"datetime2": {
				Type:        promptic.TypeString,
				Description: "The second datetime",
			},
			"format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of both datetimes. Defaults to " + DateTimeLayout,
			},
		},
		Required: []string{"datetime1", "datetime2"},
	}
}

// Run returns total_seconds signed as datetime2 minus datetime1, and the
// absolute breakdown into days, hours, minutes and seconds.
func (t *TimeDifference) Run(ctx context.Context, args map[string]any) (any, error) {
	layout := stringArg(args, "format", DateTimeLayout)

	first, err := time.Parse(layout, stringArg(args, "datetime1", ""))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse datetime1", goerr.V("format", layout))
	}
	second, err := time.Parse(layout, stringArg(args, "datetime2", ""))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse datetime2", goerr.V("format", layout))
	}

	diff := second.Sub(first)
	abs := diff
	if abs < 0 {
		abs = -abs
	}

	return map[string]any{
		"total_seconds": diff.Seconds(),
		"days":          int(abs.Hours()) / 24,
		"hours":         int(abs.Hours()) % 24,
		"minutes":       int(abs.Minutes()) % 60,
		"seconds":       int(abs.Seconds()) % 60,
	}, nil
}

// Weekend reports whether a date falls on a Saturday or Sunday.
type Weekend struct{}

func (t *Weekend) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "IsWeekend",
		Description: "Check whether a date falls on a weekend",
		Parameters: map[string]*promptic.Parameter{
			"date": {
				Type:        promptic.TypeString,
				Description: "The date to check",
			},
			"format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of the date. Defaults to " + DateLayout,
			},
		},
		Required: []string{"date"},
	}
}

func (t *Weekend) Run(ctx context.Context, args map[string]any) (any, error) {
	layout := stringArg(args, "format", DateLayout)

	parsed, err := time.Parse(layout, stringArg(args, "date", ""))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse date", goerr.V("format", layout))
	}

	weekday := parsed.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday, nil
}

// DayOfWeek names the weekday of a date.
type DayOfWeek struct{}

func (t *DayOfWeek) Spec() promptic.ToolSpec {
	return promptic.ToolSpec{
		Name:        "GetDayOfWeek",
		Description: "Get the day of the week for a date",
		Parameters: map[string]*promptic.Parameter{
			"date": {
				Type:        promptic.TypeString,
				Description: "The date to inspect",
			},
			"format": {
				Type:        promptic.TypeString,
				Description: "Go time layout of the date. Defaults to " + DateLayout,
			},
		},
		Required: []string{"date"},
	}
}

func (t *DayOfWeek) Run(ctx context.Context, args map[string]any) (any, error) {
	layout := stringArg(args, "format", DateLayout)

	parsed, err := time.Parse(layout, stringArg(args, "date", ""))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse date", goerr.V("format", layout))
	}
	return parsed.Weekday().String(), nil
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// numberArg coerces a JSON number argument. Model payloads decode to
// float64; native callers may pass Go integer types.
func numberArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
