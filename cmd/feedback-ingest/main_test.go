package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDecision(t *testing.T) {
	tests := []struct {
		decision string
		want     bool
	}{
		{"approve", true},
		{"deny", true},
		{"review", true},
		{"APPROVE", true},
		{"Deny", true},
		{"reject", false},
		{"maybe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			assert.Equal(t, tt.want, validDecision(tt.decision))
		})
	}
}
