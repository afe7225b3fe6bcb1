package preprocess

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Funding/internal/store"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

const header = "YEAR,SERIAL,PERNUM,STATEFIP,AGE,RACE,HISPAN,DIFFANY,CITIZEN,SPMFAMUNIT,SPMTOTRES,SPMTHRESH,SPMWT,SPMSNAP,SPMHEAT,ASECWT,ADJGINC,FICA,FEDTAXAC,CTCCRD,ACTCCRD,INCSSI,INCUNEMP,EITCRED,STATAXAC,TAXINC"

// extract has two households in Ohio across two survey years and one in
// Utah. The second Ohio person carries NIU sentinels everywhere.
var extract = strings.Join([]string{
	header,
	"2020,1,1,39,40,200,0,1,1,101,30000,20000,3000,500,0,2000,40000,3000,4000,1000,500,0,0,0,800,35000",
	"2020,1,2,39,10,100,0,2,5,101,30000,20000,3000,500,0,2000,99999999,99999,99999999,999999,99999,999999,999999,9999,9999999,9999999",
	"2021,7,1,49,70,100,0,1,2,202,9000,12000,1500,0,100,1500,0,0,0,0,0,6000,99999,0,0,0",
	"2021,8,1,39,25,651,200,1,5,303,15000,14000,2000,0,0,1800,-1000,0,0,0,0,0,2500,300,0,0",
}, "\n") + "\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readExtract(t *testing.T, opts Options) []survey.Person {
	t.Helper()
	persons, err := Read(context.Background(), strings.NewReader(extract), opts)
	require.NoError(t, err)
	return persons
}

func TestRead_Flags(t *testing.T) {
	persons := readExtract(t, Options{})
	require.Len(t, persons, 4)

	adult, child := persons[0], persons[1]
	assert.Equal(t, "2020-1-1", adult.ID)
	assert.Equal(t, "Ohio", adult.State)
	assert.True(t, adult.Adult)
	assert.False(t, adult.Child)
	assert.True(t, adult.Black)
	assert.False(t, adult.WhiteNonHispanic)
	assert.False(t, adult.Disabled)
	assert.False(t, adult.NonCitizen)

	assert.True(t, child.Child)
	assert.True(t, child.WhiteNonHispanic)
	assert.True(t, child.Disabled)
	assert.True(t, child.NonCitizen)
	assert.True(t, child.NonCitizenChild)
	assert.False(t, child.NonCitizenAdult)

	hisp := persons[3]
	assert.True(t, hisp.Hispanic)
	assert.False(t, hisp.WhiteNonHispanic)
	assert.True(t, hisp.NonCitizenAdult)
	assert.Equal(t, -1000.0, hisp.AGI)
}

func TestRead_SentinelsZeroed(t *testing.T) {
	persons := readExtract(t, Options{})
	p := persons[1]
	assert.Zero(t, p.AGI)
	assert.Zero(t, p.PayrollTax)
	assert.Zero(t, p.IncomeTax)
	assert.Zero(t, p.CTC)
	assert.Zero(t, p.SSI)
	assert.Zero(t, p.Unemployment)
	assert.Zero(t, p.EITC)
	assert.Zero(t, p.StateTax)

	// incunemp carries two sentinels
	assert.Zero(t, persons[2].Unemployment)
	assert.Equal(t, 2500.0, persons[3].Unemployment)
}

func TestRead_ChildTaxCreditCombined(t *testing.T) {
	persons := readExtract(t, Options{})
	assert.Equal(t, 1500.0, persons[0].CTC)
}

func TestRead_WeightsPooledByYears(t *testing.T) {
	persons := readExtract(t, Options{})
	// two distinct years
	assert.InDelta(t, 1000, persons[0].Weight, 1e-9)
	assert.InDelta(t, 1500, persons[0].HouseholdWeight, 1e-9)

	persons = readExtract(t, Options{Years: 3})
	assert.InDelta(t, 2000.0/3, persons[0].Weight, 1e-9)
	assert.InDelta(t, 500, persons[2].Weight, 1e-9)
}

func TestRead_MembersCountedPerUnitYear(t *testing.T) {
	persons := readExtract(t, Options{})
	assert.Equal(t, 2, persons[0].NumPer)
	assert.Equal(t, 2, persons[1].NumPer)
	assert.Equal(t, 1, persons[2].NumPer)
	assert.Equal(t, 1, persons[3].NumPer)
}

func TestRead_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Read(ctx, strings.NewReader("year,age\n2020,30\n"), Options{})
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = Read(ctx, strings.NewReader(header+"\n"), Options{})
	assert.ErrorIs(t, err, ErrEmpty)

	bad := header + "\n2020,1,1,72,40,200,0,1,1,101,30000,20000,3000,500,0,2000,0,0,0,0,0,0,0,0,0,0\n"
	_, err = Read(ctx, strings.NewReader(bad), Options{})
	assert.ErrorIs(t, err, ErrUnknownState)

	bad = header + "\n2020,1,1,39,forty,200,0,1,1,101,30000,20000,3000,500,0,2000,0,0,0,0,0,0,0,0,0,0\n"
	_, err = Read(ctx, strings.NewReader(bad), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "age")
}

func TestReadFile_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(extract))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "cps.csv.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	persons, err := ReadFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Len(t, persons, 4)
}

func TestStateName(t *testing.T) {
	name, ok := StateName(11)
	assert.True(t, ok)
	assert.Equal(t, "District of Columbia", name)

	_, ok = StateName(3)
	assert.False(t, ok)
	assert.Len(t, stateNames, 51)
}

func TestBuildAndSave(t *testing.T) {
	persons := readExtract(t, Options{})
	out, err := Build(persons)
	require.NoError(t, err)

	assert.Len(t, out.Households, 3)
	require.NoError(t, survey.Verify(out.Households, out.Persons))

	var geos []string
	for _, g := range out.Geography {
		geos = append(geos, g.Geography)
	}
	assert.ElementsMatch(t, []string{"US", "Ohio", "Utah"}, geos)
	assert.NotEmpty(t, out.Demography)

	dir := t.TempDir()
	fs := store.NewFileStore(dir, store.DefaultNames())
	require.NoError(t, out.Save(context.Background(), fs, discardLogger()))

	loaded, err := fs.LoadPersons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, out.Persons, loaded)

	geo, demog, err := fs.LoadBaseline(context.Background())
	require.NoError(t, err)
	assert.Len(t, geo, 3)
	assert.Len(t, demog, len(out.Demography))
}
