package schedule

import "fmt"

// Sink receives human-readable trace lines. It never affects resolution.
type Sink interface {
	Append(line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) Append(line string) { f(line) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(string) {})

// Trace collects lines in memory. Not safe for concurrent use.
type Trace struct {
	lines []string
}

func (t *Trace) Append(line string) { t.lines = append(t.lines, line) }

// Lines returns a copy of the collected lines.
func (t *Trace) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Tee fans a line out to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(line string) {
		for _, s := range sinks {
			if s != nil {
				s.Append(line)
			}
		}
	})
}

func tracef(s Sink, format string, args ...any) {
	if s == nil {
		return
	}
	s.Append(fmt.Sprintf(format, args...))
}
