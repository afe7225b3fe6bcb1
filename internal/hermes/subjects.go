package hermes

const (
	SubjectSnapshotReloaded = "funding.snapshot.reloaded"
	SubjectAllScenarios     = "funding.scenario.>"

	StreamName   = "FUNDING_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are retained by the FUNDING_EVENTS stream.
var StreamSubjects = []string{"funding.scenario.>", "funding.snapshot.>"}

func SubjectScenarioEvaluated(id string) string { return "funding.scenario." + id + ".evaluated" }
func SubjectScenarioRejected(id string) string  { return "funding.scenario." + id + ".rejected" }
