// sweep_scenarios.go: evaluates a tax-rate sweep against a running funding server.
//
// Usage:
//
//	go run scripts/sweep_scenarios.go -sweep sweep.yaml -api http://localhost:8700 -client sweep
//
// The sweep file holds a base reform and the rates to try:
//
//	base:
//	  geography: US
//	  level: federal
//	  benefits: [ctc, eitcred]
//	  taxes: [fedtaxac]
//	  include: [children, non_citizens, adults]
//	rates:
//	  from: 0
//	  to: 30
//	  step: 5
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
)

type sweep struct {
	Base  policy.Params `yaml:"base"`
	Rates struct {
		From float64 `yaml:"from"`
		To   float64 `yaml:"to"`
		Step float64 `yaml:"step"`
	} `yaml:"rates"`
}

func main() {
	sweepPath := flag.String("sweep", "sweep.yaml", "path to sweep file")
	apiURL := flag.String("api", "http://localhost:8700", "funding API base URL")
	clientID := flag.String("client", "sweep", "X-Client-ID header value")
	dryRun := flag.Bool("dry-run", false, "print requests without posting")
	flag.Parse()

	data, err := os.ReadFile(*sweepPath)
	if err != nil {
		log.Fatalf("read sweep: %v", err)
	}
	var s sweep
	if err := yaml.Unmarshal(data, &s); err != nil {
		log.Fatalf("parse sweep: %v", err)
	}
	if s.Rates.Step <= 0 {
		s.Rates.Step = 1
	}
	if s.Base.Level == "" {
		s.Base.Level = string(policy.LevelFederal)
	}

	var reqs []policy.Params
	for rate := s.Rates.From; rate <= s.Rates.To+1e-9; rate += s.Rates.Step {
		p := s.Base
		p.TaxRate = rate
		reqs = append(reqs, p)
	}
	log.Printf("sweeping %d rates from %s", len(reqs), *sweepPath)

	if *dryRun {
		for i, p := range reqs {
			body, _ := json.Marshal(p)
			fmt.Printf("[%d] %s\n", i+1, body)
		}
		return
	}

	client := &http.Client{}
	fmt.Printf("%8s %12s %14s %12s\n", "rate", "monthly_ubi", "poverty_rate", "better_off")
	ok, failed := 0, 0
	for _, p := range reqs {
		body, _ := json.Marshal(p)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/scenarios", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip rate %v: %v", p.TaxRate, err)
			failed++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip rate %v: %v", p.TaxRate, err)
			failed++
			continue
		}

		var ev scenario.Evaluation
		err = json.NewDecoder(resp.Body).Decode(&ev)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || err != nil {
			log.Printf("skip rate %v: status %d", p.TaxRate, resp.StatusCode)
			failed++
			continue
		}

		change := "n/a"
		if c := ev.Bundle.PovertyRate.Change; c != nil {
			change = fmt.Sprintf("%+.1f%%", *c*100)
		}
		fmt.Printf("%7.1f%% %12.0f %14s %11.1f%%\n", p.TaxRate, ev.Bundle.MonthlyUBI, change, ev.Bundle.PercentBetterOff)
		ok++
	}

	log.Printf("done: %d evaluated, %d failed", ok, failed)
}
