package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "data/relief.db", "file:data/relief.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"bare file uri", "file:relief.db", "file:relief.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"uri keeps its parameters", "file:relief.db?mode=rwc&cache=shared", "file:relief.db?_pragma=foreign_keys(1)&mode=rwc&cache=shared&_pragma=busy_timeout(5000)"},
		{"uri keeps its busy timeout", "file:relief.db?_pragma=busy_timeout(100)", "file:relief.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)"},
		{"foreign keys off is overridden", "file:relief.db?_pragma=FOREIGN_KEYS(0)", "file:relief.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}
