package lookup

import (
	"context"
	"errors"
	"fmt"

	"bizcal/internal/config"
	"bizcal/internal/model"
)

// ErrUnknownCalendar is returned when neither an assignment nor the default calendar resolves.
var ErrUnknownCalendar = errors.New("unknown calendar")

// Source provides calendars and assignments.
type Source interface {
	GetCalendar(ctx context.Context, id string) (model.Calendar, error)
	LookupAssignment(ctx context.Context, objectType, objectID string) (string, error)
}

// Lookup picks the calendar that applies to a user, process and task.
type Lookup struct {
	src       Source
	defaultID string
}

func New(src Source, defaultID string) *Lookup {
	return &Lookup{src: src, defaultID: defaultID}
}

// CalendarFor checks task, then process, then user assignments, and falls back to the
// default calendar. Empty ids are skipped.
func (l *Lookup) CalendarFor(ctx context.Context, userID, processID, taskID string) (model.Calendar, error) {
	candidates := []struct{ typ, id string }{
		{model.ObjectTask, taskID},
		{model.ObjectProcess, processID},
		{model.ObjectUser, userID},
	}
	for _, c := range candidates {
		if c.id == "" {
			continue
		}
		calID, err := l.src.LookupAssignment(ctx, c.typ, c.id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return model.Calendar{}, err
		}
		cal, err := l.src.GetCalendar(ctx, calID)
		if errors.Is(err, model.ErrNotFound) {
			// Dangling assignment; keep falling back.
			continue
		}
		return cal, err
	}
	return l.Calendar(ctx, l.defaultID)
}

// Calendar loads a calendar by id.
func (l *Lookup) Calendar(ctx context.Context, id string) (model.Calendar, error) {
	if id == "" {
		return model.Calendar{}, fmt.Errorf("%w: no default calendar configured", ErrUnknownCalendar)
	}
	cal, err := l.src.GetCalendar(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Calendar{}, fmt.Errorf("%w: %s", ErrUnknownCalendar, id)
	}
	return cal, err
}

// ConfigSource serves calendars and assignments straight from a loaded config.
type ConfigSource struct {
	cfg config.Config
}

func NewConfigSource(cfg config.Config) *ConfigSource { return &ConfigSource{cfg: cfg} }

func (s *ConfigSource) GetCalendar(_ context.Context, id string) (model.Calendar, error) {
	cc, ok := s.cfg.Calendar(id)
	if !ok {
		return model.Calendar{}, model.ErrNotFound
	}
	def, err := cc.Definition()
	if err != nil {
		return model.Calendar{}, err
	}
	return model.Calendar{ID: cc.ID, Name: cc.Name, Definition: def, PublicHolidays: cc.PublicHolidays}, nil
}

func (s *ConfigSource) LookupAssignment(_ context.Context, objectType, objectID string) (string, error) {
	for _, a := range s.cfg.Assignments {
		if a.Type == objectType && a.ID == objectID {
			return a.Calendar, nil
		}
	}
	return "", model.ErrNotFound
}
