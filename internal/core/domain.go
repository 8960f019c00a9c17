package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout expenses are written with on the standard
// entry path: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DayLayout is the calendar-day layout used by entry forms and day keys.
const DayLayout = "2006-01-02"

// DefaultCategories seeds the category registry on first use.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Personal",
	"Shopping",
	"Recharge",
	"Emergency",
	"Others",
}

type (
	// Expense is a single dated, categorized outflow. Date holds the raw
	// stored timestamp text and is parsed lazily so that unreadable values
	// survive a load/save cycle untouched.
	Expense struct {
		ID          string  `json:"id"`
		Date        string  `json:"date"`
		Category    string  `json:"category"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyID          = errors.New("empty expense id")
	ErrDuplicateID      = errors.New("duplicate expense id")
	ErrEmptyCategory    = errors.New("empty category")
	ErrCategoryExists   = errors.New("category already exists")
)

// Validate checks the model-level invariants. Description and category may
// be empty here; the entry form enforces those.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if math.IsNaN(e.Amount) || e.Amount < 0 || e.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// Time parses the stored date in loc. A nil loc means time.Local.
func (e Expense) Time(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(e.Date, loc)
}

// localTimestampLayout matches timestamps written without a zone.
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp accepts RFC 3339 timestamps of any precision, timestamps
// without a zone and bare YYYY-MM-DD days. Zoned timestamps are converted
// into loc; the other two forms are read as wall time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(localTimestampLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// FormatTimestamp renders t the way new expenses are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EntryTime merges the time-of-day of now onto the calendar day chosen by the
// user. If day is not three numeric parts, now itself is returned.
func EntryTime(day string, now time.Time) time.Time {
	parts := strings.Split(strings.TrimSpace(day), "-")
	if len(parts) != 3 {
		return now
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return now
		}
		nums[i] = n
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2],
		now.Hour(), now.Minute(), now.Second(), 0, now.Location())
}

// NewExpense builds an expense the way the entry form does: the id comes from
// the caller and the timestamp is the chosen day at the current time-of-day.
func NewExpense(id string, amount float64, description, category, day string, now time.Time) Expense {
	return Expense{
		ID:          id,
		Date:        FormatTimestamp(EntryTime(day, now)),
		Category:    category,
		Amount:      amount,
		Description: description,
	}
}

// NormalizeCategory trims a label and rejects empty ones.
func NormalizeCategory(label string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", ErrEmptyCategory
	}
	return trimmed, nil
}
