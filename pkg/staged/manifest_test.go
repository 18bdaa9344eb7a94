package staged_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/staged"
	"github.com/stretchr/testify/assert"
)

func TestBatchCheck(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg   string
		batch staged.Batch
		isErr bool
	}{
		{"ok", staged.Batch{Source: "td", Table: "route", Mode: "bus", Path: "r.csv"}, false},
		{"no mode needed", staged.Batch{Source: "td", Table: "trip", Path: "t.csv"}, false},
		{"missing mode", staged.Batch{Source: "td", Table: "place", Path: "p.csv"}, true},
		{"bad mode", staged.Batch{Source: "td", Table: "place", Mode: "taxi", Path: "p.csv"}, true},
		{"bad table", staged.Batch{Source: "td", Table: "stops", Mode: "bus", Path: "p.csv"}, true},
	}
	for _, v := range tests {
		err := v.batch.Check()
		assert.Equal(v.isErr, err != nil, v.msg)
	}
}

func TestCalendarDays(t *testing.T) {
	c := staged.CalendarRecord{Monday: "1", Sunday: "0"}
	days := c.Days()
	assert.Len(t, days, 7)
	assert.Equal(t, "1", days[0])
	assert.Equal(t, "0", days[6])
}
