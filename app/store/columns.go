package store

// Column identifies a job table column, values match the json field names of Job
type Column string

// known columns, in default layout order
const (
	ColumnCompanyName  Column = "companyName"
	ColumnLink         Column = "link"
	ColumnDesirability Column = "desirability"
	ColumnSalaryMin    Column = "salaryMin"
	ColumnSalaryMax    Column = "salaryMax"
	ColumnRole         Column = "role"
	ColumnKeywords     Column = "keywords"
	ColumnProgress     Column = "progress"
	ColumnCreatedAt    Column = "createdAt"
)

var defaultLayout = []Column{
	ColumnCompanyName,
	ColumnLink,
	ColumnDesirability,
	ColumnSalaryMin,
	ColumnSalaryMax,
	ColumnRole,
	ColumnKeywords,
	ColumnProgress,
	ColumnCreatedAt,
}

var columnLabels = map[Column]string{
	ColumnCompanyName:  "Company Name",
	ColumnLink:         "Link",
	ColumnDesirability: "Desirability",
	ColumnSalaryMin:    "Salary Min",
	ColumnSalaryMax:    "Salary Max",
	ColumnRole:         "Role",
	ColumnKeywords:     "Keywords",
	ColumnProgress:     "Progress",
	ColumnCreatedAt:    "Created",
}

// DefaultLayout returns a fresh copy of the default column order
func DefaultLayout() []Column {
	return append([]Column(nil), defaultLayout...)
}

// Label returns the table header text, the raw id for unknown columns
func (c Column) Label() string {
	if l, ok := columnLabels[c]; ok {
		return l
	}
	return string(c)
}

// Known reports whether c is one of the fixed columns
func (c Column) Known() bool {
	_, ok := columnLabels[c]
	return ok
}

// IsPermutation checks that layout holds every known column exactly once
func IsPermutation(layout []Column) bool {
	if len(layout) != len(defaultLayout) {
		return false
	}
	seen := make(map[Column]bool, len(layout))
	for _, c := range layout {
		if !c.Known() || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}
