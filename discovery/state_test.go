package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePhase(t *testing.T) {
	tests := []struct {
		name      string
		batchLen  int
		cursor    int
		busy      bool
		lastError string
		want      Phase
	}{
		{name: "never loaded", want: PhaseEmpty},
		{name: "head of batch", batchLen: 3, want: PhaseReady},
		{name: "last candidate", batchLen: 3, cursor: 2, want: PhaseReady},
		{name: "exhausted", batchLen: 3, cursor: 3, want: PhaseExhausted},
		{name: "busy wins over everything", batchLen: 3, cursor: 3, busy: true, lastError: "x", want: PhaseBusy},
		{name: "error wins over ready", batchLen: 3, cursor: 1, lastError: "timeout", want: PhaseErrored},
		{name: "error on empty batch", lastError: "timeout", want: PhaseErrored},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, derivePhase(tc.batchLen, tc.cursor, tc.busy, tc.lastError))
		})
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseEmpty, PhaseBusy, true},
		{PhaseEmpty, PhaseReady, false},
		{PhaseReady, PhaseBusy, true},
		{PhaseReady, PhaseExhausted, false},
		{PhaseBusy, PhaseReady, true},
		{PhaseBusy, PhaseExhausted, true},
		{PhaseBusy, PhaseErrored, true},
		{PhaseBusy, PhaseEmpty, true},
		{PhaseErrored, PhaseReady, true},
		{PhaseErrored, PhaseBusy, true},
		{PhaseExhausted, PhaseReady, false},
		{PhaseExhausted, PhaseErrored, false},
		{PhaseReady, PhaseReady, true},
	}

	for _, tc := range tests {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.from, tc.to))
		})
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Exhausted", PhaseExhausted.String())
	assert.Equal(t, "Unknown", Phase(42).String())
}
