package service

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// validatePayload checks the payload against the template's
// JSON-Schema and returns every violation as a "path: message" pair
// ("root" for whole-payload violations), not just the first.
func validatePayload(schema map[string]any, payload map[string]any) []string {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return []string{fmt.Sprintf("root: %s", err.Error())}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		field := issue.Field()
		if field == "" || field == "(root)" {
			field = "root"
		}
		field = strings.ReplaceAll(field, "(root).", "")
		violations = append(violations, fmt.Sprintf("%s: %s", field, issue.Description()))
	}
	return violations
}
