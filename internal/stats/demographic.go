package stats

import (
	"fmt"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// Demographic is a person-level membership used to slice poverty rates.
type Demographic string

const (
	Person           Demographic = "person"
	Adult            Demographic = "adult"
	Child            Demographic = "child"
	Black            Demographic = "black"
	WhiteNonHispanic Demographic = "white_non_hispanic"
	Hispanic         Demographic = "hispanic"
	Disabled         Demographic = "pwd"
	NonCitizen       Demographic = "non_citizen"
	NonCitizenAdult  Demographic = "non_citizen_adult"
	NonCitizenChild  Demographic = "non_citizen_child"
)

var demographics = []struct {
	d      Demographic
	label  string
	member func(*survey.Person) bool
}{
	{Person, "Everyone", func(*survey.Person) bool { return true }},
	{Adult, "Adult", func(p *survey.Person) bool { return p.Adult }},
	{Child, "Child", func(p *survey.Person) bool { return p.Child }},
	{Black, "Black", func(p *survey.Person) bool { return p.Black }},
	{WhiteNonHispanic, "White non-Hispanic", func(p *survey.Person) bool { return p.WhiteNonHispanic }},
	{Hispanic, "Hispanic", func(p *survey.Person) bool { return p.Hispanic }},
	{Disabled, "People with disabilities", func(p *survey.Person) bool { return p.Disabled }},
	{NonCitizen, "Non-citizen", func(p *survey.Person) bool { return p.NonCitizen }},
	{NonCitizenAdult, "Non-citizen adult", func(p *survey.Person) bool { return p.NonCitizenAdult }},
	{NonCitizenChild, "Non-citizen child", func(p *survey.Person) bool { return p.NonCitizenChild }},
}

// Demographics returns every demographic in snapshot order.
func Demographics() []Demographic {
	out := make([]Demographic, len(demographics))
	for i, d := range demographics {
		out[i] = d.d
	}
	return out
}

// Breakdown returns the demographics reported in a Bundle's breakdown.
func Breakdown() []Demographic {
	return []Demographic{Child, Adult, Disabled, WhiteNonHispanic, Black, Hispanic}
}

// ParseDemographic validates a demographic key.
func ParseDemographic(s string) (Demographic, error) {
	for _, d := range demographics {
		if string(d.d) == s {
			return d.d, nil
		}
	}
	return "", fmt.Errorf("stats: unknown demographic %q", s)
}

// Member reports whether p belongs to d.
func (d Demographic) Member(p *survey.Person) bool {
	for _, e := range demographics {
		if e.d == d {
			return e.member(p)
		}
	}
	return false
}

// Label is the display name of d.
func (d Demographic) Label() string {
	for _, e := range demographics {
		if e.d == d {
			return e.label
		}
	}
	return string(d)
}
