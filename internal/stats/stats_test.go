package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

var allGroups = []string{"children", "non_citizens", "adults"}

// examplePersons is household A in Ohio (a Black adult and a Hispanic child
// with a disability) and household B in Utah (a White non-Hispanic adult).
func examplePersons() []survey.Person {
	a := func(id string) survey.Person {
		return survey.Person{ID: id, Unit: 1, Year: 2020, State: "Ohio", NumPer: 2,
			Resources: 20000, Threshold: 15000, HouseholdWeight: 1, Weight: 1}
	}
	a1 := a("a1")
	a1.Age, a1.Adult, a1.Black, a1.AGI = 40, true, true, 30000
	a2 := a("a2")
	a2.Age, a2.Child, a2.Hispanic, a2.Disabled = 7, true, true, true

	b1 := survey.Person{ID: "b1", Unit: 2, Year: 2020, State: "Utah", NumPer: 1,
		Age: 30, Adult: true, WhiteNonHispanic: true, AGI: 10000,
		Resources: 10000, Threshold: 12000, HouseholdWeight: 1, Weight: 1}
	return []survey.Person{a1, a2, b1}
}

func population(t *testing.T, persons []survey.Person) *survey.Population {
	t.Helper()
	hh, err := survey.Aggregate(persons)
	require.NoError(t, err)
	pop, err := survey.NewPopulation(hh, persons)
	require.NoError(t, err)
	return pop
}

func simulate(t *testing.T, pop *survey.Population, p policy.Params) *policy.Result {
	t.Helper()
	r, err := policy.NewReform(p, 0)
	require.NoError(t, err)
	res, err := policy.Simulate(pop, r, policy.DefaultRules())
	require.NoError(t, err)
	return res
}

func TestNewBaseline(t *testing.T) {
	pop := population(t, examplePersons())
	base, err := NewBaseline(pop)
	require.NoError(t, err)

	assert.Equal(t, []string{"US", "Ohio", "Utah"}, base.Geographies())

	us, ok := base.Geography("US")
	require.True(t, ok)
	assert.Equal(t, 2000.0, us.PovertyGap)
	assert.Equal(t, 30000.0, us.TotalResources)
	// Every person has 10000 to themselves.
	assert.Equal(t, 0.0, us.Gini)

	everyone, ok := base.Demographic("US", Person)
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, everyone.PovertyRate, 1e-15)
	assert.Equal(t, 3.0, everyone.Population)

	adults, _ := base.Demographic("US", Adult)
	assert.Equal(t, 0.5, adults.PovertyRate)
	assert.Equal(t, 2.0, adults.Population)

	ohio, _ := base.Geography("Ohio")
	assert.Equal(t, 0.0, ohio.PovertyGap)
	assert.Equal(t, 20000.0, ohio.TotalResources)

	nc, ok := base.Demographic("Ohio", NonCitizen)
	require.True(t, ok)
	assert.Equal(t, 0.0, nc.Population)
	assert.Equal(t, 0.0, nc.PovertyRate)

	_, ok = base.Geography("Texas")
	assert.False(t, ok)
}

func TestBaselineRows(t *testing.T) {
	base, err := NewBaseline(population(t, examplePersons()))
	require.NoError(t, err)

	geo, demog := base.Rows()
	require.Len(t, geo, 3)
	require.Len(t, demog, 3*len(Demographics()))
	assert.Equal(t, "US", geo[0].Geography)
	assert.Equal(t, Person, demog[0].Demographic)

	rebuilt, err := BaselineFromRows(geo, demog)
	require.NoError(t, err)
	assert.Equal(t, base, rebuilt)

	t.Run("missing demographic", func(t *testing.T) {
		_, err := BaselineFromRows(geo, demog[1:])
		assert.ErrorIs(t, err, ErrIncompleteBaseline)
	})
	t.Run("unknown demographic", func(t *testing.T) {
		bad := append([]DemographicStats(nil), demog...)
		bad[0].Demographic = "martian"
		_, err := BaselineFromRows(geo, bad)
		assert.ErrorIs(t, err, ErrIncompleteBaseline)
	})
	t.Run("orphan rows", func(t *testing.T) {
		_, err := BaselineFromRows(geo[:2], demog)
		assert.ErrorIs(t, err, ErrIncompleteBaseline)
	})
	t.Run("duplicate geography", func(t *testing.T) {
		_, err := BaselineFromRows(append(geo, geo[0]), demog)
		assert.ErrorIs(t, err, ErrIncompleteBaseline)
	})
}

func TestCompareEndToEnd(t *testing.T) {
	pop := population(t, examplePersons())
	base, err := NewBaseline(pop)
	require.NoError(t, err)
	res := simulate(t, pop, policy.Params{Level: "federal", TaxRate: 10, Include: allGroups})

	b, err := Compare(pop, base, res)
	require.NoError(t, err)

	ubi := 4000.0 / 3.0
	assert.Equal(t, "US", b.Geography)
	assert.Equal(t, policy.LevelFederal, b.Level)
	assert.InDelta(t, ubi, b.UBI, 1e-9)
	assert.InDelta(t, ubi/12, b.MonthlyUBI, 1e-9)
	assert.InDelta(t, 4000.0, b.Revenue, 1e-9)
	assert.InDelta(t, 3.0, b.TargetEligiblePopulation, 1e-12)
	assert.InDelta(t, 4000.0, b.TargetRevenue, 1e-9)
	assert.Equal(t, 3.0, b.Population)

	// B stays poor: 10000 - 1000 + 1333.33 < 12000.
	assert.InDelta(t, 1.0/3.0, b.PovertyRate.Reformed, 1e-15)
	require.NotNil(t, b.PovertyRate.Change)
	assert.Equal(t, 0.0, *b.PovertyRate.Change)

	assert.InDelta(t, 12000-(9000+ubi), b.PovertyGap.Reformed, 1e-9)
	require.NotNil(t, b.PovertyGap.Change)
	assert.Equal(t, -0.167, *b.PovertyGap.Change)

	// A zero baseline Gini has no relative change.
	assert.Equal(t, 0.0, b.Gini.Baseline)
	assert.Greater(t, b.Gini.Reformed, 0.0)
	assert.Nil(t, b.Gini.Change)

	// Only B gains.
	assert.Equal(t, 33.3, b.PercentBetterOff)
	assert.InDelta(t, 0.0, b.AverageChangePerPerson, 1e-9)

	require.Len(t, b.Breakdown, 6)
	keys := make([]string, len(b.Breakdown))
	for i, ind := range b.Breakdown {
		keys[i] = ind.Key
	}
	assert.Equal(t, []string{"child", "adult", "pwd", "white_non_hispanic", "black", "hispanic"}, keys)
	adult := b.Breakdown[1]
	assert.Equal(t, 0.5, adult.Baseline)
	assert.Equal(t, 0.5, adult.Reformed)
	require.NotNil(t, adult.Change)
	assert.Equal(t, 0.0, *adult.Change)
	assert.Nil(t, b.Breakdown[0].Change)
}

func TestCompareZeroReform(t *testing.T) {
	persons := examplePersons()
	persons[0].Weight, persons[1].Weight, persons[2].Weight = 1.7, 2.3, 0.9
	pop := population(t, persons)
	base, err := NewBaseline(pop)
	require.NoError(t, err)
	res := simulate(t, pop, policy.Params{Level: "federal", Include: allGroups})

	b, err := Compare(pop, base, res)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Revenue)
	assert.Equal(t, 0.0, b.PercentBetterOff)
	assert.Equal(t, 0.0, b.AverageChangePerPerson)
	for _, ind := range append([]Indicator{b.PovertyRate, b.PovertyGap, b.Gini}, b.Breakdown...) {
		assert.Equal(t, ind.Baseline, ind.Reformed, ind.Key)
		if ind.Change != nil {
			assert.Equal(t, 0.0, *ind.Change, ind.Key)
		}
	}
}

func TestCompareStateLevel(t *testing.T) {
	pop := population(t, examplePersons())
	base, err := NewBaseline(pop)
	require.NoError(t, err)
	res := simulate(t, pop, policy.Params{Geography: "Utah", Level: "state", TaxRate: 10, Include: allGroups})

	// Only B is simulated, so the UBI hands its tax straight back.
	assert.InDelta(t, 1000.0, res.UBI, 1e-9)

	_, err = Compare(pop, base, res)
	// Utah has no children, so the breakdown cannot be reported.
	assert.ErrorIs(t, err, ErrEmptyGroup)
	assert.True(t, IsDegenerate(err))
}

func TestCompareTargetGeography(t *testing.T) {
	persons := append(examplePersons(), survey.Person{
		ID: "c1", Unit: 3, Year: 2020, State: "Ohio", NumPer: 1,
		Age: 50, Adult: true, WhiteNonHispanic: true,
		Resources: 5000, Threshold: 12000, HouseholdWeight: 1, Weight: 1,
	})
	pop := population(t, persons)
	base, err := NewBaseline(pop)
	require.NoError(t, err)
	res := simulate(t, pop, policy.Params{Geography: "Ohio", Level: "federal", TaxRate: 10, Include: allGroups})

	b, err := Compare(pop, base, res)
	require.NoError(t, err)

	ubi := 4000.0 / 4.0
	assert.InDelta(t, ubi, b.UBI, 1e-9)
	assert.InDelta(t, 4.0, b.EligiblePopulation, 1e-12)
	assert.InDelta(t, 3.0, b.TargetEligiblePopulation, 1e-12)
	assert.InDelta(t, 3000.0, b.TargetRevenue, 1e-9)
	assert.Equal(t, 3.0, b.Population)
	// Ohio pays 3000 in tax and receives 3000.
	assert.InDelta(t, 0.0, b.AverageChangePerPerson, 1e-9)
	assert.Equal(t, 33.3, b.PercentBetterOff)
}

func TestCompareUnknownGeography(t *testing.T) {
	pop := population(t, examplePersons())
	base, err := NewBaseline(pop)
	require.NoError(t, err)
	res := simulate(t, pop, policy.Params{Geography: "Texas", Level: "federal", TaxRate: 10, Include: allGroups})

	_, err = Compare(pop, base, res)
	assert.ErrorIs(t, err, ErrNoGeography)
	assert.False(t, IsDegenerate(err))
}

func TestRelativeChange(t *testing.T) {
	c, err := RelativeChange(0.9, 1.2, 3)
	require.NoError(t, err)
	assert.Equal(t, -0.25, c)

	c, err = RelativeChange(1, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, -0.667, c)

	_, err = RelativeChange(1, 0, 3)
	assert.ErrorIs(t, err, ErrZeroBaseline)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 61.2, Round(61.2345, 1))
	assert.Equal(t, 0.167, Round(1.0/6.0, 3))
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, -3.0, Round(-2.6, 0))
}

func TestDemographics(t *testing.T) {
	assert.Len(t, Demographics(), 10)
	for _, d := range Demographics() {
		parsed, err := ParseDemographic(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
		assert.NotEmpty(t, d.Label())
	}
	_, err := ParseDemographic("white")
	assert.Error(t, err)

	p := examplePersons()[1]
	assert.True(t, Child.Member(&p))
	assert.True(t, Disabled.Member(&p))
	assert.True(t, Person.Member(&p))
	assert.False(t, Adult.Member(&p))
}
