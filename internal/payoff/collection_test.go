package payoff

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// Property: A unit collection with a single child reproduces that child.
func TestProperty_SingleChildCollectionIsIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	condor, err := NewCondor(90, 7.5, 110, 1)
	require.NoError(t, err)

	properties.Property("Sum(child)(x) == child(x)", prop.ForAll(
		func(x float64) bool {
			return Sum(condor).Evaluate(x) == condor.Evaluate(x)
		},
		gen.Float64Range(50, 150),
	))

	properties.Property("NewCollection(m, a, b)(x) == m*(a(x)+b(x))", prop.ForAll(
		func(m, x float64) bool {
			call := NewCall(100, Long, 1)
			put := NewPut(100, Short, 2)
			got := NewCollection(m, call, put).Evaluate(x)
			return approxEqual(got, m*(call.Evaluate(x)+put.Evaluate(x)))
		},
		gen.Float64Range(-5, 5),
		gen.Float64Range(50, 150),
	))

	properties.TestingRun(t)
}

func TestCollection_Empty(t *testing.T) {
	empty := NewCollection(42)
	require.Equal(t, 0.0, empty.Evaluate(100))
	require.Empty(t, empty.Legs())
	require.Equal(t, 0, empty.Len())
}

func TestCollection_LegsPreserveOrder(t *testing.T) {
	condor, err := NewCondor(90, 5, 110, 1)
	require.NoError(t, err)
	put := NewPut(95, Short, 1)

	nested := NewCollection(2, put, Sum(condor, put))

	want := append([]Option{put}, condor.Legs()...)
	want = append(want, put)
	if diff := cmp.Diff(want, nested.Legs(), optionComparer); diff != "" {
		t.Fatalf("legs mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2.0, nested.Magnitude())
	require.Equal(t, 2, nested.Len())
}

func TestCollection_ChildrenSharedButListCopied(t *testing.T) {
	call := NewCall(100, Long, 1)
	children := []Strategy{call}
	c := NewCollection(1, children...)

	children[0] = NewCall(0, Long, 100)
	require.Equal(t, 10.0, c.Evaluate(110))

	got := c.Strategies()
	got[0] = NewPut(0, Long, 1)
	require.Equal(t, 10.0, c.Evaluate(110))
}

func TestFunc(t *testing.T) {
	f := Func(NewCall(10, Long, 3))
	require.Equal(t, 6.0, f(12))
}
