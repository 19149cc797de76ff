package store

import (
	"context"
	"time"

	"relief/internal/relief/entity"
	"relief/pkg/requestcontext"
)

// columns is an ordered set of column assignments.
type columns struct {
	names  []string
	values []any
}

func (c *columns) add(name string, v any) {
	c.names = append(c.names, name)
	c.values = append(c.values, v)
}

func (c *columns) set(name string, v any) {
	for i, n := range c.names {
		if n == name {
			c.values[i] = v
			return
		}
	}
	c.add(name, v)
}

// prepareInsert checks required fields in declaration order, coerces every
// non-blank value and fills defaulted dates with the submission date.
// Absent or blank optional fields are left to the column default.
func prepareInsert(ctx context.Context, d entity.Descriptor, fields map[string]any) (*columns, error) {
	for _, f := range d.Fields {
		if !f.Required {
			continue
		}
		if v, ok := entity.Input(fields, f); !ok || entity.IsBlank(v) {
			return nil, entity.MissingField(f.Name)
		}
	}

	row := &columns{}
	today := requestcontext.Now(ctx).Format(time.DateOnly)
	for _, f := range d.Fields {
		v, ok := entity.Input(fields, f)
		if ok && !entity.IsBlank(v) {
			coerced, err := entity.Coerce(f, v)
			if err != nil {
				return nil, err
			}
			row.add(f.Name, coerced)
			continue
		}
		if f.DefaultToday {
			row.add(f.Name, today)
		}
	}
	return row, nil
}

// prepareUpdate keeps only present fields. Blank required or defaulted values
// leave the stored value alone; blank optional values clear the column.
func prepareUpdate(d entity.Descriptor, fields map[string]any) (*columns, error) {
	set := &columns{}
	for _, f := range d.Fields {
		v, ok := entity.Input(fields, f)
		if !ok {
			continue
		}
		if entity.IsBlank(v) {
			if f.Required || f.DefaultToday || f.OnBlank != entity.BlankNull {
				continue
			}
			set.add(f.Name, nil)
			continue
		}
		coerced, err := entity.Coerce(f, v)
		if err != nil {
			return nil, err
		}
		set.add(f.Name, coerced)
	}
	return set, nil
}
