package survey

// NationalGeography is the geography key for the whole country.
const NationalGeography = "US"

// HouseholdKey identifies an SPM unit within one survey year.
type HouseholdKey struct {
	Unit int64 `json:"spmfamunit"`
	Year int   `json:"year"`
}

// Person is one surveyed individual. Household-level values (resources,
// threshold, household weight, SNAP, energy subsidy) are inherited from
// the person's SPM unit.
type Person struct {
	ID    string `json:"person_id"`
	Unit  int64  `json:"spmfamunit"`
	Year  int    `json:"year"`
	State string `json:"state"`
	Age   int    `json:"age"`

	Adult            bool `json:"adult"`
	Child            bool `json:"child"`
	Black            bool `json:"black"`
	WhiteNonHispanic bool `json:"white_non_hispanic"`
	Hispanic         bool `json:"hispanic"`
	Disabled         bool `json:"pwd"`
	NonCitizen       bool `json:"non_citizen"`
	NonCitizenChild  bool `json:"non_citizen_child"`
	NonCitizenAdult  bool `json:"non_citizen_adult"`

	// Household-level values
	Resources       float64 `json:"spmtotres"`
	Threshold       float64 `json:"spmthresh"`
	HouseholdWeight float64 `json:"spmwt"`
	SNAP            float64 `json:"spmsnap"`
	EnergySubsidy   float64 `json:"spmheat"`
	NumPer          int     `json:"numper"`

	// Person-level taxes and benefits, as paid or received
	AGI          float64 `json:"adjginc"`
	PayrollTax   float64 `json:"fica"`
	IncomeTax    float64 `json:"fedtaxac"`
	CTC          float64 `json:"ctc"`
	SSI          float64 `json:"incssi"`
	Unemployment float64 `json:"incunemp"`
	EITC         float64 `json:"eitcred"`
	StateTax     float64 `json:"stataxac"`

	Weight float64 `json:"asecwt"`
}

// Key returns the person's household key.
func (p *Person) Key() HouseholdKey {
	return HouseholdKey{Unit: p.Unit, Year: p.Year}
}

// ResourcesPerPerson is the household's resources shared equally by its members.
func (p *Person) ResourcesPerPerson() float64 {
	return p.Resources / float64(p.NumPer)
}

// Poor reports whether the person's household falls below its poverty threshold.
func (p *Person) Poor() bool {
	return p.Resources < p.Threshold
}

// Household is one SPM unit. PayrollTax, IncomeTax and StateTax hold the
// negated sum of the members' payments: subtracting one of them from
// Resources hands the tax back to the household, the same operation that
// removes a benefit.
type Household struct {
	Unit  int64  `json:"spmfamunit"`
	Year  int    `json:"year"`
	State string `json:"state"`

	Threshold     float64 `json:"spmthresh"`
	Resources     float64 `json:"spmtotres"`
	Weight        float64 `json:"spmwt"`
	SNAP          float64 `json:"spmsnap"`
	EnergySubsidy float64 `json:"spmheat"`
	NumPer        int     `json:"numper"`

	AGI          float64 `json:"adjginc"`
	PayrollTax   float64 `json:"fica"`
	IncomeTax    float64 `json:"fedtaxac"`
	CTC          float64 `json:"ctc"`
	SSI          float64 `json:"incssi"`
	Unemployment float64 `json:"incunemp"`
	EITC         float64 `json:"eitcred"`
	StateTax     float64 `json:"stataxac"`

	Children           int `json:"child"`
	Adults             int `json:"adult"`
	NonCitizens        int `json:"non_citizen"`
	NonCitizenChildren int `json:"non_citizen_child"`
	NonCitizenAdults   int `json:"non_citizen_adult"`
}

// Key returns the household key.
func (h *Household) Key() HouseholdKey {
	return HouseholdKey{Unit: h.Unit, Year: h.Year}
}

// InGeography reports whether the household belongs to geo. Every
// household is in NationalGeography.
func (h *Household) InGeography(geo string) bool {
	return geo == NationalGeography || h.State == geo
}

// InGeography reports whether the person belongs to geo.
func (p *Person) InGeography(geo string) bool {
	return geo == NationalGeography || p.State == geo
}
