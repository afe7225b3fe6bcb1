package scenario

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// Summarize renders the headline lines of a bundle:
//
//	Monthly UBI: $1,234
//	Funds for UBI: $1.2B
//	UBI population: 3.2M
//	Percent better off: 61.2%
//	Average change in resources per person: $-12
//
// For a single state the funds and population are those of the state.
func Summarize(b *stats.Bundle) []string {
	funds := fmt.Sprintf("Funds for UBI: $%s", Numerize(b.Revenue, 1))
	if b.Geography != survey.NationalGeography {
		funds = fmt.Sprintf("Funds for UBI (%s): $%s", b.Geography, Numerize(b.TargetRevenue, 1))
	}
	return []string{
		"Monthly UBI: $" + humanize.Comma(int64(math.Round(b.MonthlyUBI))),
		funds,
		"UBI population: " + Numerize(b.TargetEligiblePopulation, 1),
		fmt.Sprintf("Percent better off: %.1f%%", b.PercentBetterOff),
		"Average change in resources per person: $" + humanize.Comma(int64(b.AverageChangePerPerson)),
	}
}

var suffixes = []string{"", "K", "M", "B", "T"}

// Numerize abbreviates n with a K, M, B or T suffix, keeping at most
// decimals digits and dropping trailing zeros: 1234567 becomes "1.2M".
func Numerize(n float64, decimals int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	i := 0
	for i < len(suffixes)-1 && n >= 1000 {
		n /= 1000
		i++
	}
	p := math.Pow10(decimals)
	return sign + humanize.FtoaWithDigits(math.Round(n*p)/p, decimals) + suffixes[i]
}
