package payoff

// Collection is a scaled sum of strategies. Children are held by reference
// and may be evaluated on their own elsewhere.
type Collection struct {
	strategies []Strategy
	magnitude  float64
}

// NewCollection returns magnitude * (s1 + s2 + ...). An empty collection is
// the zero function.
func NewCollection(magnitude float64, strategies ...Strategy) *Collection {
	children := make([]Strategy, len(strategies))
	copy(children, strategies)
	return &Collection{strategies: children, magnitude: magnitude}
}

// Sum is NewCollection with a magnitude of 1.
func Sum(strategies ...Strategy) *Collection {
	return NewCollection(1, strategies...)
}

// Evaluate returns the scaled sum of the children's payoffs.
func (c *Collection) Evaluate(underlying float64) float64 {
	if len(c.strategies) == 0 {
		return 0
	}
	var total float64
	for _, s := range c.strategies {
		total += s.Evaluate(underlying)
	}
	return c.magnitude * total
}

// Legs returns every child's legs, in child order. The magnitude is not
// applied to the returned legs.
func (c *Collection) Legs() []Option {
	return flattenLegs(c.strategies)
}

// Strategies returns the children in order.
func (c *Collection) Strategies() []Strategy {
	children := make([]Strategy, len(c.strategies))
	copy(children, c.strategies)
	return children
}

// Magnitude returns the scale applied to the sum.
func (c *Collection) Magnitude() float64 { return c.magnitude }

// Len returns the number of children.
func (c *Collection) Len() int { return len(c.strategies) }
