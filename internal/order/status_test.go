package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/StanislavShvedov/Shop-API-dip/internal/order"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		name         string
		status       order.Status
		wantTerminal bool
		wantMutable  bool
	}{
		{name: "empty", status: order.StatusEmpty, wantTerminal: false, wantMutable: true},
		{name: "new", status: order.StatusNew, wantTerminal: false, wantMutable: true},
		{name: "making_an_order", status: order.StatusMaking, wantTerminal: false, wantMutable: false},
		{name: "done", status: order.StatusDone, wantTerminal: true, wantMutable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTerminal, tt.status.Terminal())
			assert.Equal(t, tt.wantMutable, tt.status.Mutable())
		})
	}
}

func TestStatusForLineCount(t *testing.T) {
	assert.Equal(t, order.StatusEmpty, order.StatusForLineCount(0))
	assert.Equal(t, order.StatusNew, order.StatusForLineCount(1))
	assert.Equal(t, order.StatusNew, order.StatusForLineCount(7))
}
