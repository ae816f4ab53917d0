package crew

import "time"

// TimeProvider injects the clock into components that depend on it: the
// session store's expiry check, the loop's wall-clock budget, and prompt
// templates that reference the current date.
//
// Template usage:
//
//	Today is {{.Time.Today}} ({{.Time.Weekday}})
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns today's date as YYYY-MM-DD.
	Today() string

	// Format returns the current time formatted with the given layout.
	Format(layout string) string

	// Weekday returns the current day of the week (e.g., "Monday").
	Weekday() string
}

// DefaultTimeProvider is the standard TimeProvider using the system clock.
type DefaultTimeProvider struct{}

// NewDefaultTimeProvider creates a new DefaultTimeProvider.
func NewDefaultTimeProvider() *DefaultTimeProvider {
	return &DefaultTimeProvider{}
}

// Now returns the current system time.
func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now()
}

// Today returns today's date as YYYY-MM-DD.
func (p *DefaultTimeProvider) Today() string {
	return p.Now().Format("2006-01-02")
}

// Format returns the current time formatted with the given layout.
func (p *DefaultTimeProvider) Format(layout string) string {
	return p.Now().Format(layout)
}

// Weekday returns the current day of the week.
func (p *DefaultTimeProvider) Weekday() string {
	return p.Now().Weekday().String()
}

// MockTimeProvider is a TimeProvider that returns a controllable time.
// Useful for testing expiry and budget behavior deterministically.
type MockTimeProvider struct {
	current time.Time
}

// NewMockTimeProvider creates a MockTimeProvider fixed at the given time.
func NewMockTimeProvider(t time.Time) *MockTimeProvider {
	return &MockTimeProvider{current: t}
}

// SetTime updates the time returned by Now().
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.current = t
}

// Advance moves the clock forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}

// Now returns the controlled time.
func (m *MockTimeProvider) Now() time.Time {
	return m.current
}

// Today returns the controlled date as YYYY-MM-DD.
func (m *MockTimeProvider) Today() string {
	return m.current.Format("2006-01-02")
}

// Format returns the controlled time formatted with the given layout.
func (m *MockTimeProvider) Format(layout string) string {
	return m.current.Format(layout)
}

// Weekday returns the day of the week for the controlled time.
func (m *MockTimeProvider) Weekday() string {
	return m.current.Weekday().String()
}

// Compile-time checks.
var (
	_ TimeProvider = (*DefaultTimeProvider)(nil)
	_ TimeProvider = (*MockTimeProvider)(nil)
)
