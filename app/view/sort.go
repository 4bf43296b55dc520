package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/umputun/jobtrack/app/store"
	"github.com/umputun/jobtrack/app/store/enums"
)

// Sort is the active table sort. Zero value means no sort, jobs stay in store order (newest first).
type Sort struct {
	Column    store.Column
	Direction enums.SortDirection
}

// IsActive reports whether any column is sorted
func (s Sort) IsActive() bool { return s.Column != "" }

// DirectionFor returns the direction if col is the sorted column
func (s Sort) DirectionFor(col store.Column) (enums.SortDirection, bool) {
	if !s.IsActive() || s.Column != col {
		return enums.SortDirection{}, false
	}
	return s.Direction, true
}

// Toggle cycles the sort on a header click: unsorted -> asc -> desc -> unsorted for the same column,
// a different column always starts with asc.
func (s Sort) Toggle(col store.Column) Sort {
	if s.Column != col {
		return Sort{Column: col, Direction: enums.SortDirectionAsc}
	}
	if s.Direction == enums.SortDirectionAsc {
		return Sort{Column: col, Direction: enums.SortDirectionDesc}
	}
	return Sort{}
}

// String encodes the sort as "column:direction", empty for no sort
func (s Sort) String() string {
	if !s.IsActive() {
		return ""
	}
	return string(s.Column) + ":" + s.Direction.String()
}

// ParseSort decodes the result of Sort.String
func ParseSort(v string) (Sort, error) {
	if v == "" {
		return Sort{}, nil
	}
	col, dir, ok := strings.Cut(v, ":")
	if !ok {
		return Sort{}, fmt.Errorf("invalid sort %q", v)
	}
	if !store.Column(col).Known() {
		return Sort{}, fmt.Errorf("invalid sort column %q", col)
	}
	d, err := enums.ParseSortDirection(dir)
	if err != nil {
		return Sort{}, fmt.Errorf("invalid sort direction: %w", err)
	}
	return Sort{Column: store.Column(col), Direction: d}, nil
}

// Apply returns a sorted copy of jobs. The sort is stable, jobs without a value for the column
// always go last no matter the direction.
func (s Sort) Apply(jobs []store.Job) []store.Job {
	res := slices.Clone(jobs)
	if !s.IsActive() {
		return res
	}
	coll := collate.New(language.English) // collator is not safe for concurrent use, one per call
	desc := s.Direction == enums.SortDirectionDesc
	slices.SortStableFunc(res, func(a, b store.Job) int {
		ka, kb := keyOf(a, s.Column), keyOf(b, s.Column)
		switch {
		case ka.kind == keyAbsent && kb.kind == keyAbsent:
			return 0
		case ka.kind == keyAbsent:
			return 1
		case kb.kind == keyAbsent:
			return -1
		}
		c := ka.compare(kb, coll)
		if desc {
			return -c
		}
		return c
	})
	return res
}

type keyKind int

const (
	keyAbsent keyKind = iota
	keyString
	keyNumber
	keyTime
	keyOther
)

// sortKey is a comparable value of a single job field
type sortKey struct {
	kind keyKind
	str  string
	num  int
	ts   time.Time
}

func keyOf(j store.Job, col store.Column) sortKey {
	switch col {
	case store.ColumnCompanyName:
		return sortKey{kind: keyString, str: j.CompanyName}
	case store.ColumnLink:
		return sortKey{kind: keyString, str: j.Link}
	case store.ColumnRole:
		return sortKey{kind: keyString, str: j.Role}
	case store.ColumnProgress:
		return sortKey{kind: keyString, str: j.Progress.String()}
	case store.ColumnDesirability:
		return sortKey{kind: keyNumber, num: j.Desirability}
	case store.ColumnSalaryMin:
		return numberOrAbsent(j.SalaryMin)
	case store.ColumnSalaryMax:
		return numberOrAbsent(j.SalaryMax)
	case store.ColumnCreatedAt:
		return sortKey{kind: keyTime, ts: j.CreatedAt}
	default:
		// keywords is a list, lists don't order
		return sortKey{kind: keyOther}
	}
}

func numberOrAbsent(v *int) sortKey {
	if v == nil {
		return sortKey{kind: keyAbsent}
	}
	return sortKey{kind: keyNumber, num: *v}
}

// compare orders keys of the same kind, anything else is equal
func (k sortKey) compare(other sortKey, coll *collate.Collator) int {
	if k.kind != other.kind {
		return 0
	}
	switch k.kind {
	case keyString:
		return coll.CompareString(k.str, other.str)
	case keyNumber:
		return cmp.Compare(k.num, other.num)
	case keyTime:
		return k.ts.Compare(other.ts)
	default:
		return 0
	}
}
