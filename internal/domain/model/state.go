package model

import (
	"encoding/json"
	"fmt"

	"telegram-horoscope-bot/internal/domain/zodiac"
)

// Step names the conversation state variant.
type Step string

const (
	StepIdle                Step = "idle"
	StepChoosingSign        Step = "choosing_sign"
	StepWaitingForBirthDate Step = "waiting_for_birth_date"
	StepChoosingDate        Step = "choosing_date"
	StepChoosingType        Step = "choosing_type"
	StepWaitingForPayment   Step = "waiting_for_payment"
)

// State is a closed sum type: each variant carries only the scratch data valid for it.
type State interface {
	Step() Step
	isState()
}

type Idle struct{}

type ChoosingSign struct{}

type WaitingForBirthDate struct{}

// ChoosingDate is entered once a sign was chosen or resolved.
type ChoosingDate struct {
	Sign zodiac.Sign
}

// ChoosingType is entered once both sign and period are known.
type ChoosingType struct {
	Sign   zodiac.Sign
	Period Period
}

type WaitingForPayment struct{}

func (Idle) Step() Step                { return StepIdle }
func (ChoosingSign) Step() Step        { return StepChoosingSign }
func (WaitingForBirthDate) Step() Step { return StepWaitingForBirthDate }
func (ChoosingDate) Step() Step        { return StepChoosingDate }
func (ChoosingType) Step() Step        { return StepChoosingType }
func (WaitingForPayment) Step() Step   { return StepWaitingForPayment }

func (Idle) isState()                {}
func (ChoosingSign) isState()        {}
func (WaitingForBirthDate) isState() {}
func (ChoosingDate) isState()        {}
func (ChoosingType) isState()        {}
func (WaitingForPayment) isState()   {}

// stateEnvelope is the wire form of a State in session storage.
type stateEnvelope struct {
	Step   Step        `json:"step"`
	Sign   zodiac.Sign `json:"sign,omitempty"`
	Period Period      `json:"period,omitempty"`
}

// EncodeState serializes a state for the session store. A nil state encodes as Idle.
func EncodeState(s State) ([]byte, error) {
	if s == nil {
		s = Idle{}
	}
	env := stateEnvelope{Step: s.Step()}
	switch v := s.(type) {
	case ChoosingDate:
		env.Sign = v.Sign
	case ChoosingType:
		env.Sign = v.Sign
		env.Period = v.Period
	}
	return json.Marshal(env)
}

// DecodeState is the inverse of EncodeState. Variants whose scratch data is
// missing or invalid are rejected rather than half-built.
func DecodeState(b []byte) (State, error) {
	if len(b) == 0 {
		return Idle{}, nil
	}
	var env stateEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	switch env.Step {
	case StepIdle, "":
		return Idle{}, nil
	case StepChoosingSign:
		return ChoosingSign{}, nil
	case StepWaitingForBirthDate:
		return WaitingForBirthDate{}, nil
	case StepWaitingForPayment:
		return WaitingForPayment{}, nil
	case StepChoosingDate:
		if !env.Sign.Valid() {
			return nil, fmt.Errorf("decode state %s: invalid sign %q", env.Step, env.Sign)
		}
		return ChoosingDate{Sign: env.Sign}, nil
	case StepChoosingType:
		if !env.Sign.Valid() || !env.Period.Valid() {
			return nil, fmt.Errorf("decode state %s: invalid scratch data", env.Step)
		}
		return ChoosingType{Sign: env.Sign, Period: env.Period}, nil
	default:
		return nil, fmt.Errorf("decode state: unknown step %q", env.Step)
	}
}
