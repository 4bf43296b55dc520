package view

import "github.com/umputun/jobtrack/app/store"

// State is the transient, per-browser UI state
type State struct {
	Filter    Filter
	Sort      Sort
	Selection Selection
}

// Table is everything needed to render the job table
type Table struct {
	Columns      []store.Column
	Jobs         []store.Job // filtered and sorted
	Total        int         // jobs in the store
	Selection    Selection   // selection limited to existing jobs
	Hidden       []string    // selected ids filtered out of Jobs
	AllSelected  bool
	RoleCounts   map[string]int
	FilterActive bool
}

// Build runs the filter then the sort over the store data
func Build(data store.Data, st State) Table {
	jobs := st.Sort.Apply(st.Filter.Apply(data.Jobs))
	sel := st.Selection.Retain(IDs(data.Jobs))
	return Table{
		Columns:      VisibleColumns(data.TableLayout),
		Jobs:         jobs,
		Total:        len(data.Jobs),
		Selection:    sel,
		Hidden:       sel.Without(IDs(jobs)),
		AllSelected:  sel.AllSelected(IDs(jobs)),
		RoleCounts:   RoleCounts(data.Jobs),
		FilterActive: !st.Filter.IsEmpty(),
	}
}

// IDs returns ids of jobs in order
func IDs(jobs []store.Job) []string {
	res := make([]string, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, j.ID)
	}
	return res
}
