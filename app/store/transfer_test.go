package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobtrack/app/store/enums"
)

func populated(t *testing.T, slot Slot) *Store {
	t.Helper()
	s := newTestStore(t, slot)
	s.AddRole("Backend")
	s.AddRole("Frontend")
	lo, hi := 120000, 160000
	s.AddJob(JobData{CompanyName: "Acme", Link: "https://acme.example", Desirability: 4, SalaryMin: &lo,
		SalaryMax: &hi, Role: "Backend", Keywords: []string{"go", "postgres"}, Progress: enums.ProgressApplied})
	s.AddJob(JobData{CompanyName: "Globex", Desirability: 2, Role: "Frontend", Keywords: []string{"react"}})
	s.UpdateTableLayout([]Column{ColumnSalaryMin, ColumnCompanyName, ColumnLink, ColumnDesirability,
		ColumnSalaryMax, ColumnRole, ColumnKeywords, ColumnProgress, ColumnCreatedAt})
	s.UpdateMinDesiredSalary(100000)
	return s
}

func TestExportFileName(t *testing.T) {
	ts := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "job-tracker-2025-01-31.json", ExportFileName(ts, enums.FormatJson))
	assert.Equal(t, "job-tracker-2025-01-31.yaml", ExportFileName(ts, enums.FormatYaml))
}

func TestStore_Export(t *testing.T) {
	s := populated(t, newCountingSlot())

	out, err := s.Export(enums.FormatJson)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"roles\": [\n    \"Backend\",", "two-space indent")
	assert.Contains(t, out, `"progress": "Applied"`)
	assert.Contains(t, out, `"salaryMax": null`)
	assert.Contains(t, out, `"minDesiredSalary": 100000`)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.ElementsMatch(t, []string{"roles", "jobs", "tableLayout", "minDesiredSalary"}, keys(parsed))
	jobs := parsed["jobs"].([]any)
	require.Len(t, jobs, 2)
	assert.ElementsMatch(t, []string{"id", "createdAt", "companyName", "link", "desirability", "salaryMin",
		"salaryMax", "role", "keywords", "progress"}, keys(jobs[0].(map[string]any)))
	assert.Equal(t, "Globex", jobs[0].(map[string]any)["companyName"])
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	for _, format := range enums.FormatValues {
		t.Run(format.String(), func(t *testing.T) {
			src := populated(t, newCountingSlot())
			out, err := src.Export(format)
			require.NoError(t, err)

			dst := newTestStore(t, newCountingSlot())
			require.NoError(t, dst.Import(out, format))
			assert.Equal(t, src.Snapshot(), dst.Snapshot())

			again, err := dst.Export(format)
			require.NoError(t, err)
			assert.Equal(t, out, again)
		})
	}
}

func TestStore_ImportPersists(t *testing.T) {
	src := populated(t, newCountingSlot())
	out, err := src.Export(enums.FormatJson)
	require.NoError(t, err)

	slot := newCountingSlot()
	dst := newTestStore(t, slot)
	require.NoError(t, dst.Import(out, enums.FormatJson))
	assert.Equal(t, 1, slot.writes())

	reloaded := newTestStore(t, slot)
	assert.Equal(t, src.Snapshot(), reloaded.Snapshot())
}

func TestStore_ImportMissingMinSalary(t *testing.T) {
	s := newTestStore(t, newCountingSlot())
	in := `{"roles":["QA"],"jobs":[],"tableLayout":["companyName","link","desirability","salaryMin","salaryMax",
		"role","keywords","progress","createdAt"]}`
	require.NoError(t, s.Import(in, enums.FormatJson))
	assert.Equal(t, []string{"QA"}, s.Snapshot().Roles)
	assert.Equal(t, 0, s.Snapshot().MinDesiredSalary)
}

func TestStore_ImportRejected(t *testing.T) {
	const layout = `["companyName","link","desirability","salaryMin","salaryMax","role","keywords","progress","createdAt"]`
	const job = `{"id":"j1","createdAt":"2025-01-01T10:00:00Z","companyName":"Acme","link":"","desirability":3,` +
		`"salaryMin":null,"salaryMax":null,"role":"","keywords":[],"progress":"Applied"}`

	tests := []struct {
		name string
		in   string
	}{
		{"garbage", "not json at all"},
		{"empty", ""},
		{"json array", "[1,2,3]"},
		{"missing jobs", `{"roles":[],"tableLayout":` + layout + `}`},
		{"missing roles", `{"jobs":[],"tableLayout":` + layout + `}`},
		{"missing layout", `{"roles":[],"jobs":[]}`},
		{"null jobs", `{"roles":[],"jobs":null,"tableLayout":` + layout + `}`},
		{"unknown progress", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` +
			`{"id":"j1","createdAt":"2025-01-01T10:00:00Z","companyName":"A","desirability":3,"progress":"Ghosted"}]}`},
		{"desirability out of range", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` +
			`{"id":"j1","createdAt":"2025-01-01T10:00:00Z","companyName":"A","desirability":7,"progress":"Offer"}]}`},
		{"empty id", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` +
			`{"id":"","createdAt":"2025-01-01T10:00:00Z","companyName":"A","desirability":3,"progress":"Offer"}]}`},
		{"duplicate ids", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` + job + `,` + job + `]}`},
		{"missing progress", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` +
			`{"id":"j1","createdAt":"2025-01-01T10:00:00Z","companyName":"A","desirability":3}]}`},
		{"negative salary", `{"roles":[],"tableLayout":` + layout + `,"jobs":[` +
			`{"id":"j1","createdAt":"2025-01-01T10:00:00Z","companyName":"A","desirability":3,"salaryMin":-5,"progress":"Offer"}]}`},
		{"layout not permutation", `{"roles":[],"jobs":[],"tableLayout":["companyName","link"]}`},
		{"layout unknown column", `{"roles":[],"jobs":[],"tableLayout":["companyName","link","desirability",` +
			`"salaryMin","salaryMax","role","keywords","progress","updatedAt"]}`},
		{"duplicate roles", `{"roles":["QA","QA"],"jobs":[],"tableLayout":` + layout + `}`},
		{"empty role", `{"roles":[""],"jobs":[],"tableLayout":` + layout + `}`},
		{"negative min salary", `{"roles":[],"jobs":[],"tableLayout":` + layout + `,"minDesiredSalary":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := newCountingSlot()
			s := populated(t, slot)
			before := s.Snapshot()
			blob, err := slot.MemorySlot.Get(context.Background(), DefaultKey)
			require.NoError(t, err)
			writes := slot.writes()

			err = s.Import(tt.in, enums.FormatJson)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrImportInvalid)

			assert.Equal(t, before, s.Snapshot())
			after, err := slot.MemorySlot.Get(context.Background(), DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, blob, after, "persisted blob unchanged")
			assert.Equal(t, writes, slot.writes())
		})
	}
}

func TestStore_ImportValidJob(t *testing.T) {
	const layout = `["companyName","link","desirability","salaryMin","salaryMax","role","keywords","progress","createdAt"]`
	in := `{"roles":["Backend"],"tableLayout":` + layout + `,"minDesiredSalary":5,"jobs":[` +
		`{"id":"j1","createdAt":"2025-01-01T10:00:00.123Z","companyName":"Acme","link":"","desirability":3,` +
		`"salaryMin":10,"salaryMax":null,"role":"Gone","keywords":null,"progress":"Interviewing"}]}`

	s := newTestStore(t, newCountingSlot())
	require.NoError(t, s.Import(in, enums.FormatJson))

	data := s.Snapshot()
	require.Len(t, data.Jobs, 1)
	j := data.Jobs[0]
	assert.Equal(t, "j1", j.ID)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 123_000_000, time.UTC), j.CreatedAt.UTC())
	assert.Equal(t, 10, *j.SalaryMin)
	assert.Nil(t, j.SalaryMax)
	assert.Equal(t, "Gone", j.Role, "role outside the role list is accepted")
	assert.Equal(t, []string{}, j.Keywords)
	assert.Equal(t, enums.ProgressInterviewing, j.Progress)
}

func TestStore_ImportYAML(t *testing.T) {
	in := `roles: [Backend]
jobs:
  - id: j1
    createdAt: 2025-02-03T04:05:06Z
    companyName: Initech
    link: ""
    desirability: 5
    salaryMin: null
    salaryMax: 90000
    role: Backend
    keywords: [go, grpc]
    progress: Offer
tableLayout: [companyName, link, desirability, salaryMin, salaryMax, role, keywords, progress, createdAt]
minDesiredSalary: 80000
`
	s := newTestStore(t, newCountingSlot())
	require.NoError(t, s.Import(in, enums.FormatYaml))
	data := s.Snapshot()
	require.Len(t, data.Jobs, 1)
	assert.Equal(t, "Initech", data.Jobs[0].CompanyName)
	assert.Equal(t, 90000, *data.Jobs[0].SalaryMax)
	assert.Equal(t, enums.ProgressOffer, data.Jobs[0].Progress)
	assert.Equal(t, []string{"go", "grpc"}, data.Jobs[0].Keywords)
	assert.Equal(t, 80000, data.MinDesiredSalary)

	err := s.Import("roles: [Backend]\n", enums.FormatYaml)
	assert.ErrorIs(t, err, ErrImportInvalid)
}

func keys(m map[string]any) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	return res
}
