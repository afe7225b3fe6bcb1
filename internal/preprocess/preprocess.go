// Package preprocess turns a raw CPS ASEC person extract into the person,
// household and baseline snapshots the scenario engine loads.
package preprocess

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/store"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

var (
	ErrMissingColumns = errors.New("preprocess: missing required columns")
	ErrUnknownState   = errors.New("preprocess: unknown state FIPS code")
	ErrEmpty          = errors.New("preprocess: extract has no rows")
)

// Race and ethnicity codes of the extract.
const (
	raceWhite  = 100
	raceBlack  = 200
	hispanNone = 0
	hispanMax  = 699
	diffanyYes = 2
	citizenNo  = 5
)

// niu lists the not-in-universe sentinels per column. A value equal to
// any of them is read as zero.
var niu = map[string][]float64{
	"adjginc":  {99999999},
	"fedtaxac": {99999999},
	"stataxac": {9999999},
	"incunemp": {999999, 99999},
	"incssi":   {999999},
	"ctccrd":   {999999},
	"actccrd":  {99999},
	"fica":     {99999},
	"eitcred":  {9999},
}

var requiredColumns = []string{
	"year", "statefip", "age", "race", "hispan", "diffany", "citizen",
	"spmfamunit", "spmtotres", "spmthresh", "spmwt", "spmsnap", "spmheat",
	"asecwt", "adjginc", "fica", "fedtaxac", "ctccrd", "actccrd",
	"incssi", "incunemp", "eitcred", "stataxac",
}

type Options struct {
	// Years is the number of pooled survey years the weights are divided
	// by. Zero counts the distinct years in the extract.
	Years int
}

// Output is a complete snapshot set.
type Output struct {
	Persons    []survey.Person
	Households []survey.Household
	Geography  []stats.GeographyStats
	Demography []stats.DemographicStats
}

// ReadFile reads an extract from path, gunzipping when it ends in .gz.
func ReadFile(ctx context.Context, path string, opts Options) ([]survey.Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return Read(ctx, r, opts)
}

// Read parses a plain CSV extract into persons. Headers are matched
// case-insensitively and extra columns are ignored.
func Read(ctx context.Context, r io.Reader, opts Options) ([]survey.Person, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var persons []survey.Person
	years := make(map[int]bool)
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p, err := parsePerson(rowReader{record: record, index: index}, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		years[p.Year] = true
		persons = append(persons, p)
	}
	if len(persons) == 0 {
		return nil, ErrEmpty
	}

	n := opts.Years
	if n <= 0 {
		n = len(years)
	}
	poolWeights(persons, n)
	countMembers(persons)
	return persons, nil
}

type rowReader struct {
	record []string
	index  map[string]int
	err    error
}

func (r *rowReader) raw(col string) string {
	i, ok := r.index[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *rowReader) float(col string) float64 {
	if r.err != nil {
		return 0
	}
	s := r.raw(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = fmt.Errorf("column %s: %w", col, err)
		return 0
	}
	for _, sentinel := range niu[col] {
		if v == sentinel {
			return 0
		}
	}
	return v
}

func (r *rowReader) integer(col string) int { return int(r.float(col)) }

func (r *rowReader) id(col string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(r.raw(col), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func parsePerson(r rowReader, line int) (survey.Person, error) {
	fips := r.integer("statefip")
	year := r.integer("year")
	age := r.integer("age")
	race := r.integer("race")
	hispan := r.integer("hispan")
	citizen := r.integer("citizen")

	p := survey.Person{
		Unit:  r.id("spmfamunit"),
		Year:  year,
		Age:   age,
		Adult: age >= 18,
		Child: age < 18,

		Black:            race == raceBlack,
		WhiteNonHispanic: race == raceWhite && hispan == hispanNone,
		Hispanic:         hispan >= 1 && hispan <= hispanMax,
		Disabled:         r.integer("diffany") == diffanyYes,
		NonCitizen:       citizen == citizenNo,

		Resources:       r.float("spmtotres"),
		Threshold:       r.float("spmthresh"),
		HouseholdWeight: r.float("spmwt"),
		SNAP:            r.float("spmsnap"),
		EnergySubsidy:   r.float("spmheat"),

		AGI:          r.float("adjginc"),
		PayrollTax:   r.float("fica"),
		IncomeTax:    r.float("fedtaxac"),
		CTC:          r.float("ctccrd") + r.float("actccrd"),
		SSI:          r.float("incssi"),
		Unemployment: r.float("incunemp"),
		EITC:         r.float("eitcred"),
		StateTax:     r.float("stataxac"),

		Weight: r.float("asecwt"),
	}
	if r.err != nil {
		return survey.Person{}, r.err
	}
	p.NonCitizenChild = p.NonCitizen && p.Child
	p.NonCitizenAdult = p.NonCitizen && p.Adult

	state, ok := StateName(fips)
	if !ok {
		return survey.Person{}, fmt.Errorf("%w: %d", ErrUnknownState, fips)
	}
	p.State = state

	if serial, pernum := r.raw("serial"), r.raw("pernum"); serial != "" && pernum != "" {
		p.ID = fmt.Sprintf("%d-%s-%s", year, serial, pernum)
	} else {
		p.ID = strconv.Itoa(line - 2)
	}
	return p, nil
}

// poolWeights divides person and household weights by the number of
// pooled survey years.
func poolWeights(persons []survey.Person, years int) {
	if years <= 1 {
		return
	}
	d := float64(years)
	for i := range persons {
		persons[i].Weight /= d
		persons[i].HouseholdWeight /= d
	}
}

// countMembers sets NumPer to the member count of each person's
// household.
func countMembers(persons []survey.Person) {
	counts := make(map[survey.HouseholdKey]int)
	for i := range persons {
		counts[persons[i].Key()]++
	}
	for i := range persons {
		persons[i].NumPer = counts[persons[i].Key()]
	}
}

// Build aggregates households and computes the baseline statistics.
func Build(persons []survey.Person) (*Output, error) {
	households, err := survey.Aggregate(persons)
	if err != nil {
		return nil, fmt.Errorf("aggregate households: %w", err)
	}
	pop, err := survey.NewPopulation(households, persons)
	if err != nil {
		return nil, err
	}
	base, err := stats.NewBaseline(pop)
	if err != nil {
		return nil, fmt.Errorf("compute baseline: %w", err)
	}
	geo, demog := base.Rows()
	return &Output{Persons: persons, Households: households, Geography: geo, Demography: demog}, nil
}

// Save writes every snapshot in o to w.
func (o *Output) Save(ctx context.Context, w store.Writer, logger *slog.Logger) error {
	if err := w.SavePersons(ctx, o.Persons); err != nil {
		return fmt.Errorf("save persons: %w", err)
	}
	if err := w.SaveHouseholds(ctx, o.Households); err != nil {
		return fmt.Errorf("save households: %w", err)
	}
	if err := w.SaveBaseline(ctx, o.Geography, o.Demography); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	logger.Info("snapshots written",
		"persons", len(o.Persons),
		"households", len(o.Households),
		"geographies", len(o.Geography),
	)
	return nil
}
