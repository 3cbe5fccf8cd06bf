package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Stage
		want     bool
	}{
		{StageIdle, StageContactFilled, true},
		{StageShippingPriced, StageContactFilled, true},
		{StagePaymentMethodChosen, StageStockValidated, true},
		{StageAddressResolved, StageStockValidated, false},
		{StagePaymentMethodChosen, StagePaymentInitiated, false},
		{StageStockValidated, StagePaymentInitiated, true},
		{StageStockValidated, StageContactFilled, false},
		{StagePaymentInitiated, StageAwaitingExternalConfirmation, true},
		{StageAwaitingExternalConfirmation, StageCompleted, true},
		{StageAwaitingExternalConfirmation, StagePaymentMethodChosen, true},
		{StageFailed, StageAddressResolved, true},
		{StageFailed, StagePaymentInitiated, false},
		{StageCompleted, StageFailed, false},
		{StageCompleted, StageIdle, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStageKinds(t *testing.T) {
	assert.True(t, StageFailed.IsEditing())
	assert.True(t, StageIdle.IsEditing())
	assert.False(t, StageAwaitingExternalConfirmation.IsEditing())
	assert.True(t, StageCompleted.IsTerminal())
	assert.False(t, StagePaymentInitiated.IsTerminal())
}
