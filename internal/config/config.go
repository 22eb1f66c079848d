package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bizcal/internal/schedule"
)

// Config is the application's configuration model.
// It captures calendar definitions, their assignments, and how resolution runs.
type Config struct {
	DefaultCalendar string             `yaml:"defaultCalendar" toml:"defaultCalendar"`
	Calendars       []CalendarConfig   `yaml:"calendars" toml:"calendars"`
	Assignments     []AssignmentConfig `yaml:"assignments" toml:"assignments"`
	Resolver        ResolverConfig     `yaml:"resolver" toml:"resolver"`
	Storage         StorageConfig      `yaml:"storage" toml:"storage"`
	Server          ServerConfig       `yaml:"server" toml:"server"`
	Metrics         MetricsConfig      `yaml:"metrics" toml:"metrics"`
	Log             LogConfig          `yaml:"log" toml:"log"`
}

type CalendarConfig struct {
	ID       string          `yaml:"id" toml:"id"`
	Name     string          `yaml:"name" toml:"name"`
	WorkDays []int           `yaml:"workDays" toml:"workDays"` // 0=Sunday .. 6=Saturday
	Windows  []WindowConfig  `yaml:"windows" toml:"windows"`
	Holidays []HolidayConfig `yaml:"holidays" toml:"holidays"`
	// Country code whose public holidays are merged in by sync-holidays, e.g. "us".
	PublicHolidays string `yaml:"publicHolidays,omitempty" toml:"publicHolidays"`
}

type WindowConfig struct {
	Day   string `yaml:"day" toml:"day"` // 0-6 or "all"
	Start string `yaml:"start" toml:"start"`
	End   string `yaml:"end" toml:"end"`
}

type HolidayConfig struct {
	Name  string `yaml:"name" toml:"name"`
	Start string `yaml:"start" toml:"start"`
	End   string `yaml:"end" toml:"end"`
	// Dated holidays match only their own year
	Dated bool `yaml:"dated,omitempty" toml:"dated,omitempty"`
}

// AssignmentConfig binds a user, process or task to a calendar.
type AssignmentConfig struct {
	Type     string `yaml:"type" toml:"type"` // user, process or task
	ID       string `yaml:"id" toml:"id"`
	Calendar string `yaml:"calendar" toml:"calendar"`
}

type ResolverConfig struct {
	// Maximum day advances before giving up
	MaxDays int `yaml:"maxDays" toml:"maxDays"`
	// "start" (default) or "legacy"
	Sort string `yaml:"sort" toml:"sort"`
	// Holiday rule of the day scan: "recurring" (default) or "literal"
	Holidays string `yaml:"holidays" toml:"holidays"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath" toml:"dbPath"`
}

type ServerConfig struct {
	Addr  string  `yaml:"addr" toml:"addr"`
	RPS   float64 `yaml:"rps" toml:"rps"`
	Burst int     `yaml:"burst" toml:"burst"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		DefaultCalendar: "default",
		Calendars: []CalendarConfig{{
			ID:       "default",
			Name:     "Default",
			WorkDays: []int{1, 2, 3, 4, 5},
			Windows:  []WindowConfig{{Day: "all", Start: "09:00", End: "17:00"}},
			Holidays: []HolidayConfig{{Name: "New Year", Start: "2025-01-01", End: "2025-01-01"}},
		}},
		Resolver: ResolverConfig{MaxDays: schedule.DefaultMaxDays, Sort: "start", Holidays: "recurring"},
		Storage:  StorageConfig{DBPath: "./bizcal.db"},
		Server:   ServerConfig{Addr: ":8080", RPS: 20, Burst: 40},
		Log:      LogConfig{Level: "info"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = os.Getenv("BIZCAL_DB_PATH")
	}
	if c.Server.Addr == "" {
		c.Server.Addr = os.Getenv("BIZCAL_ADDR")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
	if c.Log.Level == "" {
		c.Log.Level = os.Getenv("BIZCAL_LOG_LEVEL")
	}
}

// Load reads YAML (or TOML, by extension) config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if isTOML(path) {
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return cfg, err
		}
	} else if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return err
		}
		b = []byte(sb.String())
	} else {
		var err error
		if b, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func isTOML(path string) bool { return strings.EqualFold(filepath.Ext(path), ".toml") }

// Calendar returns the calendar with id.
func (c *Config) Calendar(id string) (CalendarConfig, bool) {
	for _, cal := range c.Calendars {
		if cal.ID == id {
			return cal, true
		}
	}
	return CalendarConfig{}, false
}

// Walker builds a day walker from the resolver section.
func (r ResolverConfig) Walker() (schedule.Walker, error) {
	mode, ok := schedule.ParseSortMode(r.Sort)
	if !ok {
		return schedule.Walker{}, fmt.Errorf("resolver.sort: unknown mode %q", r.Sort)
	}
	w := schedule.Walker{Sort: mode, MaxDays: r.MaxDays}
	switch r.Holidays {
	case "", "recurring":
		w.Holidays = schedule.MatchRecurring
	case "literal":
		w.Holidays = schedule.MatchLiteral
	default:
		return schedule.Walker{}, fmt.Errorf("resolver.holidays: unknown rule %q", r.Holidays)
	}
	return w, nil
}

// Definition parses the textual calendar into a schedule.Definition.
func (c CalendarConfig) Definition() (schedule.Definition, error) {
	var def schedule.Definition
	for _, d := range c.WorkDays {
		if d < 0 || d > 6 {
			return def, fmt.Errorf("calendar %s: work day %d out of range", c.ID, d)
		}
	}
	def.WorkDays = append(def.WorkDays, c.WorkDays...)
	for i, w := range c.Windows {
		win, err := w.window()
		if err != nil {
			return def, fmt.Errorf("calendar %s: window[%d]: %w", c.ID, i, err)
		}
		def.Windows = append(def.Windows, win)
	}
	for i, h := range c.Holidays {
		start, err := schedule.ParseDate(h.Start)
		if err != nil {
			return def, fmt.Errorf("calendar %s: holiday[%d]: %w", c.ID, i, err)
		}
		end := start
		if h.End != "" {
			if end, err = schedule.ParseDate(h.End); err != nil {
				return def, fmt.Errorf("calendar %s: holiday[%d]: %w", c.ID, i, err)
			}
		}
		if end.Before(start) {
			return def, fmt.Errorf("calendar %s: holiday[%d]: end %s before start %s", c.ID, i, h.End, h.Start)
		}
		def.Holidays = append(def.Holidays, schedule.Holiday{Name: h.Name, Start: start, End: end, Dated: h.Dated})
	}
	return def, nil
}

func (w WindowConfig) window() (schedule.Window, error) {
	var win schedule.Window
	day := strings.ToLower(strings.TrimSpace(w.Day))
	if day == "all" || day == "" || day == "7" {
		win.Day = schedule.AllDays
	} else {
		n, err := strconv.Atoi(day)
		if err != nil || n < 0 || n > 6 {
			return win, fmt.Errorf("invalid day %q", w.Day)
		}
		win.Day = n
	}
	var err error
	if win.Start, err = schedule.ParseClock(w.Start); err != nil {
		return win, fmt.Errorf("invalid start: %w", err)
	}
	if win.End, err = schedule.ParseClock(w.End); err != nil {
		return win, fmt.Errorf("invalid end: %w", err)
	}
	if win.End <= win.Start {
		return win, fmt.Errorf("end (%s) must be after start (%s)", w.End, w.Start)
	}
	return win, nil
}

// FromDefinition renders a definition back into its textual form.
func FromDefinition(id, name string, def schedule.Definition) CalendarConfig {
	c := CalendarConfig{ID: id, Name: name, WorkDays: append([]int(nil), def.WorkDays...)}
	for _, w := range def.Windows {
		day := "all"
		if w.Day != schedule.AllDays {
			day = strconv.Itoa(w.Day)
		}
		c.Windows = append(c.Windows, WindowConfig{Day: day, Start: shortClock(w.Start), End: shortClock(w.End)})
	}
	for _, h := range def.Holidays {
		c.Holidays = append(c.Holidays, HolidayConfig{Name: h.Name, Start: schedule.FormatDate(h.Start), End: schedule.FormatDate(h.End), Dated: h.Dated})
	}
	return c
}

// shortClock drops zero seconds so round trips keep the HH:MM form.
func shortClock(c schedule.Clock) string {
	s := c.String()
	if strings.HasSuffix(s, ":00") {
		return s[:5]
	}
	return s
}
