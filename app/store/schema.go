package store

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/umputun/jobtrack/app/store/enums"
)

// Schema returns the JSON schema of the export format
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(enums.Progress{}):
				return &jsonschema.Schema{Type: "string", Enum: toAny(enums.ProgressNames)}
			case reflect.TypeOf(Column("")):
				names := make([]string, 0, len(defaultLayout))
				for _, c := range defaultLayout {
					names = append(names, string(c))
				}
				return &jsonschema.Schema{Type: "string", Enum: toAny(names)}
			}
			return nil
		},
	}
	schema := r.Reflect(&Data{})
	schema.Title = "Job tracker store"
	schema.Description = "Exported job tracker data: roles, jobs, table layout and min desired salary"
	return schema
}

func toAny(vals []string) []any {
	res := make([]any, 0, len(vals))
	for _, v := range vals {
		res = append(res, v)
	}
	return res
}
