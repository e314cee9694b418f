package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danpilch/srtpal/internal/api/srt"
	"github.com/danpilch/srtpal/internal/booking"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = time.Minute
	minInterval     = 5 * time.Second
)

var (
	datePattern = regexp.MustCompile(`^\d{8}$`)
	timePattern = regexp.MustCompile(`^\d{6}$`)
)

// Watch is one itinerary to poll until a reservation is made.
type Watch struct {
	Name       string                        `yaml:"name"`
	From       string                        `yaml:"from"`
	To         string                        `yaml:"to"`
	Date       string                        `yaml:"date"`       // YYYYMMDD, empty means today
	Time       string                        `yaml:"time"`       // HHMMSS
	TimeLimit  string                        `yaml:"time_limit"` // HHMMSS, inclusive
	Passengers map[booking.PassengerType]int `yaml:"passengers"` // e.g. {adult: 2, child: 1}
	Seat       booking.SeatPolicy            `yaml:"seat"`
	WindowSeat *bool                         `yaml:"window_seat"`

	Standby          bool   `yaml:"standby"`
	StandbyPhone     string `yaml:"standby_phone"`
	AgreeSMS         bool   `yaml:"agree_sms"`
	AgreeClassChange bool   `yaml:"agree_class_change"`
}

// Query returns the schedule search for this watch. Sold-out trains are kept
// so standby candidates stay visible.
func (w Watch) Query() booking.SearchQuery {
	return booking.SearchQuery{
		Dep:            w.From,
		Arr:            w.To,
		Date:           w.Date,
		Time:           w.Time,
		TimeLimit:      w.TimeLimit,
		IncludeSoldOut: true,
	}
}

// PassengerList returns the configured passengers ordered by type code.
// No passengers means one adult.
func (w Watch) PassengerList() []booking.Passenger {
	if len(w.Passengers) == 0 {
		return []booking.Passenger{booking.Adult(1)}
	}
	list := make([]booking.Passenger, 0, len(w.Passengers))
	for t, n := range w.Passengers {
		list = append(list, booking.Passenger{Type: t, Count: n})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	return booking.Combine(list)
}

// Expired reports whether the watch date is before now's date.
func (w Watch) Expired(now time.Time) bool {
	return w.Date != "" && w.Date < now.Format("20060102")
}

func (w *Watch) validate() error {
	if _, ok := srt.StationCode(w.From); !ok {
		return fmt.Errorf("unknown station %q", w.From)
	}
	if _, ok := srt.StationCode(w.To); !ok {
		return fmt.Errorf("unknown station %q", w.To)
	}
	if w.From == w.To {
		return fmt.Errorf("from and to are both %q", w.From)
	}
	if w.Date != "" && !datePattern.MatchString(w.Date) {
		return fmt.Errorf("date %q must be YYYYMMDD", w.Date)
	}
	if w.Time != "" && !timePattern.MatchString(w.Time) {
		return fmt.Errorf("time %q must be HHMMSS", w.Time)
	}
	if w.TimeLimit != "" && !timePattern.MatchString(w.TimeLimit) {
		return fmt.Errorf("time_limit %q must be HHMMSS", w.TimeLimit)
	}
	if w.Time != "" && w.TimeLimit != "" && w.TimeLimit < w.Time {
		return fmt.Errorf("time_limit %s is before time %s", w.TimeLimit, w.Time)
	}

	total := 0
	for t, n := range w.Passengers {
		if n < 0 {
			return fmt.Errorf("passengers: negative count for %s", t.Name())
		}
		total += n
	}
	if len(w.Passengers) > 0 && total == 0 {
		return fmt.Errorf("passengers: at least one passenger is required")
	}

	if w.AgreeSMS && w.StandbyPhone == "" {
		return fmt.Errorf("agree_sms requires standby_phone")
	}
	return nil
}

type Config struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
	Watches  []Watch       `yaml:"watches"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = srt.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	for i := range c.Watches {
		w := &c.Watches[i]
		if w.Name == "" {
			w.Name = fmt.Sprintf("%s-%s", w.From, w.To)
			if w.Date != "" {
				w.Name += "-" + w.Date
			}
		}
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Interval < minInterval {
		return fmt.Errorf("interval must be at least %s", minInterval)
	}
	if len(c.Watches) == 0 {
		return fmt.Errorf("watches: at least one watch is required")
	}

	seen := make(map[string]bool, len(c.Watches))
	for i := range c.Watches {
		w := &c.Watches[i]
		if seen[w.Name] {
			return fmt.Errorf("watches: duplicate name %q", w.Name)
		}
		seen[w.Name] = true
		if err := w.validate(); err != nil {
			return fmt.Errorf("watch %q: %w", w.Name, err)
		}
	}

	return nil
}
