package store

import (
	"fmt"
	"strconv"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// column maps a snapshot column to a field of T. field returns a pointer
// to the field, one of *string, *int, *int64, *float64 or *bool, so the
// same table drives CSV encoding and SQL scanning.
type column[T any] struct {
	name  string
	field func(*T) any
}

func names[T any](cols []column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

func values[T any](cols []column[T], row *T) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = deref(c.field(row))
	}
	return out
}

func targets[T any](cols []column[T], row *T) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c.field(row)
	}
	return out
}

func deref(ptr any) any {
	switch v := ptr.(type) {
	case *string:
		return *v
	case *int:
		return *v
	case *int64:
		return *v
	case *float64:
		return *v
	case *bool:
		return *v
	}
	panic(fmt.Sprintf("store: unsupported column type %T", ptr))
}

func formatField(ptr any) string {
	switch v := ptr.(type) {
	case *string:
		return *v
	case *int:
		return strconv.Itoa(*v)
	case *int64:
		return strconv.FormatInt(*v, 10)
	case *float64:
		return strconv.FormatFloat(*v, 'g', -1, 64)
	case *bool:
		if *v {
			return "1"
		}
		return "0"
	}
	panic(fmt.Sprintf("store: unsupported column type %T", ptr))
}

func parseField(ptr any, s string) error {
	var err error
	switch v := ptr.(type) {
	case *string:
		*v = s
	case *int:
		*v, err = strconv.Atoi(s)
	case *int64:
		*v, err = strconv.ParseInt(s, 10, 64)
	case *float64:
		*v, err = strconv.ParseFloat(s, 64)
	case *bool:
		*v, err = strconv.ParseBool(s)
	default:
		panic(fmt.Sprintf("store: unsupported column type %T", ptr))
	}
	return err
}

var personColumns = []column[survey.Person]{
	{"person_id", func(p *survey.Person) any { return &p.ID }},
	{"spmfamunit", func(p *survey.Person) any { return &p.Unit }},
	{"year", func(p *survey.Person) any { return &p.Year }},
	{"state", func(p *survey.Person) any { return &p.State }},
	{"age", func(p *survey.Person) any { return &p.Age }},
	{"adult", func(p *survey.Person) any { return &p.Adult }},
	{"child", func(p *survey.Person) any { return &p.Child }},
	{"black", func(p *survey.Person) any { return &p.Black }},
	{"white_non_hispanic", func(p *survey.Person) any { return &p.WhiteNonHispanic }},
	{"hispanic", func(p *survey.Person) any { return &p.Hispanic }},
	{"pwd", func(p *survey.Person) any { return &p.Disabled }},
	{"non_citizen", func(p *survey.Person) any { return &p.NonCitizen }},
	{"non_citizen_child", func(p *survey.Person) any { return &p.NonCitizenChild }},
	{"non_citizen_adult", func(p *survey.Person) any { return &p.NonCitizenAdult }},
	{"spmtotres", func(p *survey.Person) any { return &p.Resources }},
	{"spmthresh", func(p *survey.Person) any { return &p.Threshold }},
	{"spmwt", func(p *survey.Person) any { return &p.HouseholdWeight }},
	{"spmsnap", func(p *survey.Person) any { return &p.SNAP }},
	{"spmheat", func(p *survey.Person) any { return &p.EnergySubsidy }},
	{"numper", func(p *survey.Person) any { return &p.NumPer }},
	{"adjginc", func(p *survey.Person) any { return &p.AGI }},
	{"fica", func(p *survey.Person) any { return &p.PayrollTax }},
	{"fedtaxac", func(p *survey.Person) any { return &p.IncomeTax }},
	{"ctc", func(p *survey.Person) any { return &p.CTC }},
	{"incssi", func(p *survey.Person) any { return &p.SSI }},
	{"incunemp", func(p *survey.Person) any { return &p.Unemployment }},
	{"eitcred", func(p *survey.Person) any { return &p.EITC }},
	{"stataxac", func(p *survey.Person) any { return &p.StateTax }},
	{"asecwt", func(p *survey.Person) any { return &p.Weight }},
}

var householdColumns = []column[survey.Household]{
	{"spmfamunit", func(h *survey.Household) any { return &h.Unit }},
	{"year", func(h *survey.Household) any { return &h.Year }},
	{"state", func(h *survey.Household) any { return &h.State }},
	{"spmthresh", func(h *survey.Household) any { return &h.Threshold }},
	{"spmtotres", func(h *survey.Household) any { return &h.Resources }},
	{"spmwt", func(h *survey.Household) any { return &h.Weight }},
	{"spmsnap", func(h *survey.Household) any { return &h.SNAP }},
	{"spmheat", func(h *survey.Household) any { return &h.EnergySubsidy }},
	{"numper", func(h *survey.Household) any { return &h.NumPer }},
	{"adjginc", func(h *survey.Household) any { return &h.AGI }},
	{"fica", func(h *survey.Household) any { return &h.PayrollTax }},
	{"fedtaxac", func(h *survey.Household) any { return &h.IncomeTax }},
	{"ctc", func(h *survey.Household) any { return &h.CTC }},
	{"incssi", func(h *survey.Household) any { return &h.SSI }},
	{"incunemp", func(h *survey.Household) any { return &h.Unemployment }},
	{"eitcred", func(h *survey.Household) any { return &h.EITC }},
	{"stataxac", func(h *survey.Household) any { return &h.StateTax }},
	{"child", func(h *survey.Household) any { return &h.Children }},
	{"adult", func(h *survey.Household) any { return &h.Adults }},
	{"non_citizen", func(h *survey.Household) any { return &h.NonCitizens }},
	{"non_citizen_child", func(h *survey.Household) any { return &h.NonCitizenChildren }},
	{"non_citizen_adult", func(h *survey.Household) any { return &h.NonCitizenAdults }},
}

var geographyColumns = []column[stats.GeographyStats]{
	{"state", func(g *stats.GeographyStats) any { return &g.Geography }},
	{"poverty_gap", func(g *stats.GeographyStats) any { return &g.PovertyGap }},
	{"gini", func(g *stats.GeographyStats) any { return &g.Gini }},
	{"total_resources", func(g *stats.GeographyStats) any { return &g.TotalResources }},
}

// demogRecord is the long form of DemographicStats: one row per metric.
type demogRecord struct {
	State  string
	Demog  string
	Metric string
	Value  float64
}

const (
	metricPovertyRate = "pov_rate"
	metricPopulation  = "pop"
)

var demogColumns = []column[demogRecord]{
	{"state", func(r *demogRecord) any { return &r.State }},
	{"demog", func(r *demogRecord) any { return &r.Demog }},
	{"metric", func(r *demogRecord) any { return &r.Metric }},
	{"value", func(r *demogRecord) any { return &r.Value }},
}

func toDemogRecords(demog []stats.DemographicStats) []demogRecord {
	out := make([]demogRecord, 0, 2*len(demog))
	for _, d := range demog {
		out = append(out,
			demogRecord{d.Geography, string(d.Demographic), metricPovertyRate, d.PovertyRate},
			demogRecord{d.Geography, string(d.Demographic), metricPopulation, d.Population},
		)
	}
	return out
}

// fromDemogRecords pivots long rows back into DemographicStats, keeping
// first-seen order.
func fromDemogRecords(recs []demogRecord) ([]stats.DemographicStats, error) {
	type key struct{ state, demog string }
	index := make(map[key]int)
	var out []stats.DemographicStats
	for _, r := range recs {
		k := key{r.State, r.Demog}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, stats.DemographicStats{Geography: r.State, Demographic: stats.Demographic(r.Demog)})
		}
		switch r.Metric {
		case metricPovertyRate:
			out[i].PovertyRate = r.Value
		case metricPopulation:
			out[i].Population = r.Value
		default:
			return nil, fmt.Errorf("store: unknown baseline metric %q", r.Metric)
		}
	}
	return out, nil
}
