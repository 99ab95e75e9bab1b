package engine

import (
	"errors"
	"testing"
	"time"
)

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		valid  bool
	}{
		{"zero", Limits{}, true},
		{"clock", Limits{TimeLeft: time.Minute, Increment: time.Second, MovesToGo: 30}, true},
		{"max depth", Limits{Depth: MaxPly}, true},
		{"negative time", Limits{TimeLeft: -1}, false},
		{"negative increment", Limits{Increment: -time.Second}, false},
		{"negative move time", Limits{MoveTime: -time.Millisecond}, false},
		{"negative moves to go", Limits{MovesToGo: -1}, false},
		{"negative depth", Limits{Depth: -1}, false},
		{"depth too large", Limits{Depth: MaxPly + 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidLimits) {
				t.Errorf("error = %v, want ErrInvalidLimits", err)
			}
		})
	}
}
