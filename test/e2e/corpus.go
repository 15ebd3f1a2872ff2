// Package e2e provides end-to-end tests with a multi-document corpus and
// multiple questions.
package e2e

import (
	"fmt"
)

// E2EDocument is a document entry in the E2E corpus (file name, title, content).
type E2EDocument struct {
	Name    string
	Title   string
	Content string
}

// QueryTestCase defines a question and the document name(s) that must appear
// in the resulting citations. At least one of ExpectedDocs must be cited.
type QueryTestCase struct {
	Question     string
	ExpectedDocs []string
	Description  string
}

// Corpus holds documents and question test cases for E2E tests.
type Corpus struct {
	Documents    []E2EDocument
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of engineering documents across several plant
// units, with question test cases. Each document carries a unique signature
// phrase so questions can assert the correct document is cited.
func BuildCorpus() *Corpus {
	docs := buildDocuments()
	cases := buildQueryTestCases()
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

// documentTopics are the per-unit document templates. The signature phrase
// appears twice in the content, once in a heading position and once inline,
// mirroring how titles repeat inside real drawings.
var documentTopics = []struct {
	name      string
	title     string
	signature string
	body      string
}{
	{"drawing-list", "DRAWING LIST", "drawing list revision index", "Complete drawing list revision index for the unit. Sheet numbers, titles, and current revision for every issued drawing."},
	{"valve-list", "VALVE LIST", "gate valve globe valve schedule", "Gate valve globe valve schedule with size, rating, and material. GATE VALVE 2 INCH CLASS 150. GLOBE VALVE 1 INCH CLASS 300."},
	{"line-list", "LINE LIST", "piping line list service", "Piping line list service table: line number, fluid service, design pressure, design temperature, insulation class."},
	{"instrument-index", "INSTRUMENT INDEX", "instrument index tag loop", "Instrument index tag loop register. Transmitters, gauges, and control valves with loop numbers and datasheet references."},
	{"pump-datasheet", "PUMP DATASHEET", "centrifugal pump design flow", "Centrifugal pump design flow and head. Rated flow 120 m3/h, differential head 85 m, NPSH required 3.2 m."},
	{"equipment-list", "EQUIPMENT LIST", "equipment list vessel exchanger", "Equipment list vessel exchanger register: tag, description, capacity, design code, and weight for all mechanical equipment."},
	{"tie-in-list", "TIE-IN LIST", "tie-in point existing plant", "Tie-in point existing plant register. Location, size, and isolation method for every connection to the running unit."},
	{"cable-schedule", "CABLE SCHEDULE", "power cable schedule routing", "Power cable schedule routing table: cable number, from, to, size, and tray route for the substation feeders."},
	{"weld-procedure", "WELDING PROCEDURE", "welding procedure carbon steel", "Welding procedure carbon steel qualification. GTAW root with SMAW fill, preheat 10 C minimum, PWHT per code."},
	{"iso-index", "ISOMETRIC INDEX", "isometric index spool sheet", "Isometric index spool sheet register covering all fabrication isometrics with their test pack assignment."},
	{"nozzle-schedule", "NOZZLE SCHEDULE", "nozzle schedule flange orientation", "Nozzle schedule flange orientation table for the column: nozzle mark, size, rating, facing, and elevation."},
	{"hydro-test", "HYDROTEST PLAN", "hydrostatic test pressure pack", "Hydrostatic test pressure pack plan. Test medium, test pressure at 1.5 times design, hold time, and reinstatement."},
}

var corpusUnits = []int{100, 200, 300}

func buildDocuments() []E2EDocument {
	docs := make([]E2EDocument, 0, len(documentTopics)*len(corpusUnits))
	for _, unit := range corpusUnits {
		for _, topic := range documentTopics {
			docs = append(docs, E2EDocument{
				Name:  fmt.Sprintf("U%d-%s", unit, topic.name),
				Title: fmt.Sprintf("%s UNIT %d", topic.title, unit),
				Content: fmt.Sprintf("%s UNIT %d\n%s\nUnit %d %s.",
					topic.title, unit, topic.body, unit, topic.signature),
			})
		}
	}
	return docs
}

func buildQueryTestCases() []QueryTestCase {
	return []QueryTestCase{
		{
			Question:     "gate valve globe valve schedule unit 100",
			ExpectedDocs: []string{"U100-valve-list"},
			Description:  "valve schedule question cites the unit valve list",
		},
		{
			Question:     "centrifugal pump design flow unit 200",
			ExpectedDocs: []string{"U200-pump-datasheet"},
			Description:  "pump flow question cites the pump datasheet",
		},
		{
			Question:     "welding procedure carbon steel unit 100",
			ExpectedDocs: []string{"U100-weld-procedure"},
			Description:  "welding question cites the procedure",
		},
		{
			Question:     "hydrostatic test pressure pack unit 200",
			ExpectedDocs: []string{"U200-hydro-test"},
			Description:  "hydrotest question cites the test plan",
		},
		{
			Question:     "instrument index tag loop unit 300",
			ExpectedDocs: []string{"U300-instrument-index"},
			Description:  "instrument question cites the index",
		},
		{
			Question:     "power cable schedule routing unit 100",
			ExpectedDocs: []string{"U100-cable-schedule"},
			Description:  "cable question cites the schedule",
		},
		{
			Question:     "nozzle schedule flange orientation unit 200",
			ExpectedDocs: []string{"U200-nozzle-schedule"},
			Description:  "nozzle question cites the schedule",
		},
		{
			Question:     "isometric index spool sheet unit 300",
			ExpectedDocs: []string{"U300-iso-index"},
			Description:  "isometric question cites the index",
		},
	}
}
