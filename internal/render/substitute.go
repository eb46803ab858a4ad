package render

import (
	"fmt"
	"regexp"

	"github.com/blockqueue/mailer/internal/logger"
)

// placeholderPattern matches {{variableName}} placeholders.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// substitute replaces {{name}} placeholders with scalar payload values.
// Unknown variables and non-scalar values are left intact with a
// warning, so a template typo degrades to visible braces instead of an
// error.
func substitute(content string, payload map[string]any, log *logger.Logger) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := payload[name]
		if !ok || value == nil {
			log.Warn().Str("variable", name).Msg("variable not found in payload")
			return match
		}
		switch v := value.(type) {
		case string:
			return v
		case bool, int, int64, float64:
			return fmt.Sprintf("%v", v)
		default:
			log.Warn().Str("variable", name).Msgf("variable has unsupported type %T, skipping substitution", value)
			return match
		}
	})
}
