// Package enums provides type-safe enumeration types for the web interface.
//
// The enum types are defined as unexported integer types in this file and go-pkgz/enum
// generates the exported types with String, Parse*, text marshaling and sql Scan/Value methods.
//
// Usage:
//
//	theme := enums.ThemeDark
//	fmt.Println(theme.String()) // "dark"
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/web/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower

// theme represents UI color themes.
// Use the exported Theme type and its constants in actual code.
type theme int

const (
	themeLight theme = iota
	themeDark
)
