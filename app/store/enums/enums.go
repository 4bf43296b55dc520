// Package enums provides type-safe enumeration types for the tracker store.
//
// The enum types are generated with go-pkgz/enum from the unexported integer types below.
// For each type the generator creates an exported struct type with String, Parse*, text
// marshaling (used by JSON and YAML encoding of the store) and sql Scan/Value methods.
//
// Usage:
//
//	p := enums.ProgressApplied
//	fmt.Println(p.String()) // "Applied"
//
//	parsed, err := enums.ParseProgress("Offer")
//	if err != nil {
//	    // reject input
//	}
//
// To regenerate after modifications:
//
//	go generate ./app/store/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type progress
//go:generate go run github.com/go-pkgz/enum@latest -type sortDirection -lower
//go:generate go run github.com/go-pkgz/enum@latest -type format -lower

// progress is the pipeline stage of a job application.
// Stored as-is in the persisted blob, so names keep their capitalization.
type progress int

const (
	progressProspecting progress = iota
	progressApplied
	progressInterviewing
	progressOffer
	progressRejected
	progressAccepted
)

// sortDirection is the direction of an active table sort.
type sortDirection int

const (
	sortDirectionAsc sortDirection = iota
	sortDirectionDesc
)

// format is the textual encoding used for export and import.
type format int

const (
	formatJson format = iota
	formatYaml
)
