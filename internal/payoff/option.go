// Package payoff models option payoffs at a single fixed expiry and composes
// them into multi-leg strategies.
//
// Every value in this package is immutable once its constructor returns, so
// Evaluate may be called concurrently from any number of goroutines.
package payoff

import (
	"fmt"
	"math"
	"strings"

	apperrors "condor-synth/internal/errors"
)

// OptionKind is the right conveyed by an option contract.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// Side is the direction of a position.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// ParseOptionKind accepts call/put as well as the CE/PE exchange notation.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C", "CE":
		return Call, nil
	case "PUT", "P", "PE":
		return Put, nil
	}
	return "", apperrors.NewValidationError("kind", s, "must be call or put")
}

// ParseSide accepts long/short as well as buy/sell.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	}
	return "", apperrors.NewValidationError("side", s, "must be long or short")
}

// Option is a single call or put contract evaluated as a payoff function of
// the underlying's terminal value.
type Option struct {
	kind    OptionKind
	strike  float64
	side    Side
	size    float64
	premium float64
}

// NewCall returns a call without premium.
func NewCall(strike float64, side Side, size float64) Option {
	return Option{kind: Call, strike: strike, side: side, size: size}
}

// NewPut returns a put without premium.
func NewPut(strike float64, side Side, size float64) Option {
	return Option{kind: Put, strike: strike, side: side, size: size}
}

// NewOption validates kind, side and premium and returns the contract.
// Size is not validated; zero degenerates the payoff and a negative size
// inverts it.
func NewOption(kind OptionKind, strike float64, side Side, size, premium float64) (Option, error) {
	if kind != Call && kind != Put {
		return Option{}, apperrors.NewConstructionError("option", "kind", kind, "must be CALL or PUT")
	}
	if side != Long && side != Short {
		return Option{}, apperrors.NewConstructionError("option", "side", side, "must be LONG or SHORT")
	}
	if premium < 0 || math.IsNaN(premium) {
		return Option{}, apperrors.NewConstructionError("option", "premium", premium, "must be non-negative")
	}
	return Option{kind: kind, strike: strike, side: side, size: size, premium: premium}, nil
}

// Evaluate returns the payoff at the given terminal underlying value.
//
// The premium is paid on a long position and received on a short one, so it
// shifts the whole curve by a constant rather than only the payoff side of
// the strike. A zero Option has no kind and evaluates to 0 everywhere.
func (o Option) Evaluate(underlying float64) float64 {
	var intrinsic float64
	switch o.kind {
	case Call:
		intrinsic = math.Max(0, underlying-o.strike)
	case Put:
		intrinsic = math.Max(0, o.strike-underlying)
	default:
		return 0
	}

	value := intrinsic*o.size - o.premium
	if o.side == Short {
		return -value
	}
	return value
}

// Legs returns the option itself.
func (o Option) Legs() []Option {
	return []Option{o}
}

// Kind returns the option kind.
func (o Option) Kind() OptionKind { return o.kind }

// Strike returns the strike.
func (o Option) Strike() float64 { return o.strike }

// Side returns the position side.
func (o Option) Side() Side { return o.side }

// Size returns the position size.
func (o Option) Size() float64 { return o.size }

// Premium returns the premium per position.
func (o Option) Premium() float64 { return o.premium }

// String renders the leg as e.g. "LONG CALL 110.00 x1".
func (o Option) String() string {
	s := fmt.Sprintf("%s %s %.2f x%g", o.side, o.kind, o.strike, o.size)
	if o.premium != 0 {
		s += fmt.Sprintf(" @%.2f", o.premium)
	}
	return s
}
