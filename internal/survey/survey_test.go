package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPersons() []Person {
	base := func(id string, unit int64, state string, age int) Person {
		return Person{
			ID: id, Unit: unit, Year: 2020, State: state, Age: age,
			Adult: age >= 18, Child: age < 18,
			Weight: 100, HouseholdWeight: 90,
		}
	}

	a1 := base("a1", 1, "Ohio", 40)
	a1.AGI, a1.IncomeTax, a1.PayrollTax, a1.StateTax = 50000, 4000, 3000, 1200
	a2 := base("a2", 1, "Ohio", 8)
	a2.NonCitizen, a2.NonCitizenChild = true, true
	a2.CTC = 2000
	b1 := base("b1", 2, "Utah", 70)
	b1.SSI, b1.EITC, b1.Unemployment = 800, 300, 150
	b1.NonCitizen, b1.NonCitizenAdult = true, true

	for _, p := range []*Person{&a1, &a2} {
		p.Resources, p.Threshold, p.NumPer = 45000, 30000, 2
	}
	b1.Resources, b1.Threshold, b1.NumPer = 9000, 14000, 1
	return []Person{a1, b1, a2}
}

func TestAggregate(t *testing.T) {
	hh, err := Aggregate(testPersons())
	require.NoError(t, err)
	require.Len(t, hh, 2)

	a := hh[0]
	assert.Equal(t, int64(1), a.Unit)
	assert.Equal(t, "Ohio", a.State)
	assert.Equal(t, 2, a.NumPer)
	assert.Equal(t, 1, a.Children)
	assert.Equal(t, 1, a.Adults)
	assert.Equal(t, 1, a.NonCitizens)
	assert.Equal(t, 1, a.NonCitizenChildren)
	assert.Equal(t, 0, a.NonCitizenAdults)
	assert.Equal(t, 50000.0, a.AGI)
	assert.Equal(t, 2000.0, a.CTC)
	assert.Equal(t, 90.0, a.Weight)

	// Taxes are negated at the household level.
	assert.Equal(t, -4000.0, a.IncomeTax)
	assert.Equal(t, -3000.0, a.PayrollTax)
	assert.Equal(t, -1200.0, a.StateTax)

	b := hh[1]
	assert.Equal(t, 1, b.NumPer)
	assert.Equal(t, 800.0, b.SSI)
	assert.Equal(t, 300.0, b.EITC)
	assert.Equal(t, 150.0, b.Unemployment)
	assert.Equal(t, 1, b.NonCitizenAdults)
}

func TestAggregateRejectsInconsistentState(t *testing.T) {
	persons := testPersons()
	persons[2].State = "Utah"
	_, err := Aggregate(persons)
	assert.ErrorIs(t, err, ErrInconsistentHousehold)
}

func TestAggregateSeparatesYears(t *testing.T) {
	persons := testPersons()
	persons[2].Year = 2021
	hh, err := Aggregate(persons)
	require.NoError(t, err)
	assert.Len(t, hh, 3)
}

func TestVerify(t *testing.T) {
	persons := testPersons()
	hh, err := Aggregate(persons)
	require.NoError(t, err)
	require.NoError(t, Verify(hh, persons))

	t.Run("tampered sum", func(t *testing.T) {
		bad := append([]Household(nil), hh...)
		bad[0].CTC += 1
		assert.ErrorIs(t, Verify(bad, persons), ErrIntegrity)
	})

	t.Run("tampered count", func(t *testing.T) {
		bad := append([]Household(nil), hh...)
		bad[1].NumPer = 2
		assert.ErrorIs(t, Verify(bad, persons), ErrIntegrity)
	})

	t.Run("missing household", func(t *testing.T) {
		assert.ErrorIs(t, Verify(hh[:1], persons), ErrIntegrity)
	})
}

func TestNewPopulation(t *testing.T) {
	persons := testPersons()
	hh, err := Aggregate(persons)
	require.NoError(t, err)

	pop, err := NewPopulation(hh, persons)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ohio", "Utah"}, pop.States())
	assert.Equal(t, []string{NationalGeography, "Ohio", "Utah"}, pop.Geographies())
	assert.True(t, pop.HasGeography("US"))
	assert.True(t, pop.HasGeography("Utah"))
	assert.False(t, pop.HasGeography("Texas"))

	for i := range pop.Persons() {
		h := pop.Households()[pop.HouseholdIndex(i)]
		assert.Equal(t, pop.Persons()[i].Key(), h.Key())
	}

	idx, ok := pop.Lookup(HouseholdKey{Unit: 2, Year: 2020})
	require.True(t, ok)
	assert.Equal(t, "Utah", pop.Households()[idx].State)
}

func TestNewPopulationRejectsOrphans(t *testing.T) {
	persons := testPersons()
	hh, err := Aggregate(persons)
	require.NoError(t, err)

	_, err = NewPopulation(hh[:1], persons)
	assert.ErrorIs(t, err, ErrIntegrity)

	persons[0].NumPer = 3
	_, err = NewPopulation(hh, persons)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestNewPopulationRejectsInvalidWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(hh []Household, persons []Person)
	}{
		{"NaN person weight", func(_ []Household, ps []Person) { ps[0].Weight = math.NaN() }},
		{"zero person weight", func(_ []Household, ps []Person) { ps[1].Weight = 0 }},
		{"negative person weight", func(_ []Household, ps []Person) { ps[2].Weight = -5 }},
		{"infinite person weight", func(_ []Household, ps []Person) { ps[0].Weight = math.Inf(1) }},
		{"zero household weight on person", func(_ []Household, ps []Person) { ps[0].HouseholdWeight = 0 }},
		{"NaN household weight", func(hh []Household, _ []Person) { hh[0].Weight = math.NaN() }},
		{"negative household weight", func(hh []Household, _ []Person) { hh[1].Weight = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persons := testPersons()
			hh, err := Aggregate(persons)
			require.NoError(t, err)

			tt.mutate(hh, persons)
			_, err = NewPopulation(hh, persons)
			assert.ErrorIs(t, err, ErrIntegrity)
			assert.ErrorIs(t, err, ErrInvalidWeight)
		})
	}
}

func TestAggregateRejectsInvalidWeights(t *testing.T) {
	persons := testPersons()
	persons[1].HouseholdWeight = math.NaN()

	_, err := Aggregate(persons)
	assert.ErrorIs(t, err, ErrInvalidWeight)
	assert.NotErrorIs(t, err, ErrInconsistentHousehold)

	persons = testPersons()
	persons[0].Weight = 0
	_, err = Aggregate(persons)
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestPersonHelpers(t *testing.T) {
	p := testPersons()[1]
	assert.True(t, p.Poor())
	assert.Equal(t, 9000.0, p.ResourcesPerPerson())
	assert.True(t, p.InGeography("US"))
	assert.True(t, p.InGeography("Utah"))
	assert.False(t, p.InGeography("Ohio"))
}
