package schedule

import "errors"

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyCalendar        = errors.New("empty calendar")
	ErrNoMatchWithinHorizon = errors.New("no business hours within horizon")
)

// ErrorKind returns a short label for err, used in metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrEmptyCalendar):
		return "empty_calendar"
	case errors.Is(err, ErrNoMatchWithinHorizon):
		return "no_match_within_horizon"
	default:
		return "internal"
	}
}
