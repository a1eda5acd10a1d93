package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name            string
		pricePerHour    int64
		durationMinutes int
		want            int64
	}{
		{"一小时整", 6000, 60, 6000},
		{"一个半小时", 1500, 90, 2250},
		{"半小时", 1500, 30, 750},
		{"两小时", 150000, 120, 300000},
		{"免费场馆", 0, 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Price(tt.pricePerHour, tt.durationMinutes))
		})
	}
}
