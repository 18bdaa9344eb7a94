package ionormalize

import (
	"strconv"
	"strings"

	"github.com/gnames/hktransit/pkg/schema"
	"github.com/gnames/hktransit/pkg/staged"
)

// daysMask sets bit 0 for Monday up to bit 6 for Sunday.
func daysMask(c staged.CalendarRecord) int {
	var res int
	for i, d := range c.Days() {
		if d == "1" {
			res |= 1 << i
		}
	}
	return res
}

// resolveCalendars keeps the first valid calendar of every service and
// the first exception of every service and date. Calendars that end
// before they start are unresolved.
func (r *run) resolveCalendars() error {
	seen := make(map[string]struct{})
	for _, c := range r.ds.Calendars {
		sid := strings.TrimSpace(c.ServiceID)
		if c.EndDate < c.StartDate {
			r.unresolve(c.Origin, staged.TableCalendar,
				ReasonBadDate, "end_date", c.StartDate+"-"+c.EndDate)
			continue
		}
		if _, ok := seen[sid]; ok {
			continue
		}
		seen[sid] = struct{}{}
		r.g.Calendars = append(r.g.Calendars, schema.ServiceCalendar{
			ServiceID: sid,
			DaysMask:  daysMask(c),
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
		})
	}

	seenDates := make(map[[2]string]struct{})
	for _, e := range r.ds.CalendarDates {
		sid := strings.TrimSpace(e.ServiceID)
		id := [2]string{sid, e.Date}
		if _, ok := seenDates[id]; ok {
			continue
		}
		seenDates[id] = struct{}{}
		typ, _ := strconv.Atoi(e.ExceptionType)
		r.g.Exceptions = append(r.g.Exceptions, schema.ServiceException{
			ServiceID:     sid,
			Date:          e.Date,
			ExceptionType: typ,
		})
	}
	return nil
}
