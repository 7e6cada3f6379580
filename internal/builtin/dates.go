package builtin

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// layouts maps layout names accepted by the Dates macro to Go layouts. Any
// other string is used as a Go layout directly.
var layouts = map[string]string{
	"date":     time.DateOnly,
	"time":     time.TimeOnly,
	"datetime": time.DateTime,
	"rfc3339":  time.RFC3339,
	"rfc1123":  time.RFC1123,
	"kitchen":  time.Kitchen,
}

// DatesMacro formats times. Its context is an IANA time zone name; without
// one it works in UTC.
//
//	{=Dates=}                     now, RFC 3339
//	{=Dates(date)|paris=}         today, with {"paris": "Europe/Paris"} as context
//	{=Dates::format(2024-03-01T10:00:00Z, kitchen)=}
type DatesMacro struct {
	*macro.Base
	now func() time.Time
}

func newDates(r *macro.Registry, now func() time.Time) *DatesMacro {
	m := &DatesMacro{
		Base: macro.NewBase(r, macro.NameOf((*DatesMacro)(nil))),
		now:  now,
	}
	m.ValidateContextWith(validateZone)
	m.Handle(macro.DefaultMethod, m.run)
	m.Handle("format", m.format)
	return m
}

func validateZone(ctx any) error {
	if isMapping(ctx) {
		return nil
	}
	zone, ok := ctx.(string)
	if !ok {
		return macro.InvalidContext("expected a time zone name, got %T", ctx)
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return macro.InvalidContext("unknown time zone '%s'", zone)
	}
	return nil
}

func (m *DatesMacro) location() *time.Location {
	zone := m.ContextString()
	if zone == "" {
		return time.UTC
	}
	// Validated in SetContext.
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (m *DatesMacro) run(args ...string) (string, error) {
	return m.now().In(m.location()).Format(layout(joinArgs(args))), nil
}

func (m *DatesMacro) format(args ...string) (string, error) {
	if err := arity(m, "format", args, 1, -1); err != nil {
		return "", err
	}

	t, err := parseTime(args[0])
	if err != nil {
		return "", err
	}
	return t.In(m.location()).Format(layout(joinArgs(args[1:]))), nil
}

func layout(name string) string {
	if name == "" {
		return time.RFC3339
	}
	if l, ok := layouts[name]; ok {
		return l
	}
	return name
}

func parseTime(s string) (time.Time, error) {
	for _, l := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse '%s' as a date", s)
}
