package payoff

// Strategy is anything with a payoff at expiry built from option legs.
// Option, Condor, CondorChain, Collection and SineApproximation all
// implement it.
type Strategy interface {
	// Evaluate returns the payoff at the terminal underlying value.
	Evaluate(underlying float64) float64
	// Legs returns the constituent options in order. The returned slice is
	// owned by the caller.
	Legs() []Option
}

// Func adapts a Strategy to a plain function of one variable.
func Func(s Strategy) func(float64) float64 {
	return s.Evaluate
}

// flattenLegs concatenates the legs of each strategy in order.
func flattenLegs[S Strategy](strategies []S) []Option {
	var legs []Option
	for _, s := range strategies {
		legs = append(legs, s.Legs()...)
	}
	return legs
}
