package checkout

type Stage string

const (
	StageIdle                         Stage = "IDLE"
	StageContactFilled                Stage = "CONTACT_FILLED"
	StageAddressResolved              Stage = "ADDRESS_RESOLVED"
	StageShippingPriced               Stage = "SHIPPING_PRICED"
	StagePaymentMethodChosen          Stage = "PAYMENT_METHOD_CHOSEN"
	StageStockValidated               Stage = "STOCK_VALIDATED"
	StagePaymentInitiated             Stage = "PAYMENT_INITIATED"
	StageAwaitingExternalConfirmation Stage = "AWAITING_EXTERNAL_CONFIRMATION"
	StageCompleted                    Stage = "COMPLETED"
	StageFailed                       Stage = "FAILED"
)

// editing stages follow the form and move freely between each other
var editing = []Stage{
	StageIdle,
	StageContactFilled,
	StageAddressResolved,
	StageShippingPriced,
	StagePaymentMethodChosen,
}

var transitions = map[Stage][]Stage{
	StageIdle:                         editing,
	StageContactFilled:                editing,
	StageAddressResolved:              editing,
	StageShippingPriced:               editing,
	StagePaymentMethodChosen:          append(append([]Stage{}, editing...), StageStockValidated, StageFailed),
	StageStockValidated:               {StagePaymentInitiated, StageFailed},
	StagePaymentInitiated:             {StageAwaitingExternalConfirmation, StageFailed},
	StageAwaitingExternalConfirmation: {StageCompleted, StageFailed, StagePaymentMethodChosen},
	StageFailed:                       editing,
	StageCompleted:                    {StageIdle},
}

func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditing reports whether the form may be changed in this stage.
func (s Stage) IsEditing() bool {
	if s == StageFailed {
		return true
	}
	for _, e := range editing {
		if e == s {
			return true
		}
	}
	return false
}

func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

func (s Stage) String() string {
	return string(s)
}
