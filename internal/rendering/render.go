package rendering

import (
	"regexp"
	"strings"

	"github.com/jordan/resume-tailor/internal/extraction"
	"github.com/jordan/resume-tailor/internal/templates"
)

// NeutralValue replaces placeholders the extraction did not resolve. A
// partially generic document is preferred over a hard failure, so rendering
// never errors on missing fields.
const NeutralValue = `---`

// placeholderPattern matches \VAR{field} placeholders in template source.
var placeholderPattern = regexp.MustCompile(`\\VAR\{([A-Za-z0-9_.]+)\}`)

// Render substitutes extracted job fields into the template. All values are
// LaTeX-escaped here; callers must not pre-escape.
func Render(tmpl *templates.Template, fields *extraction.JobFields) string {
	values := fieldValues(fields)

	return placeholderPattern.ReplaceAllStringFunc(tmpl.Source, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := values[key]
		if !ok || value == "" {
			return NeutralValue
		}
		return EscapeLaTeX(value)
	})
}

// Placeholders returns the distinct placeholder names used by a template, in
// order of first appearance.
func Placeholders(tmpl *templates.Template) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(tmpl.Source, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

func fieldValues(fields *extraction.JobFields) map[string]string {
	if fields == nil {
		return map[string]string{}
	}
	return map[string]string{
		"company":           fields.Company,
		"role":              fields.Role,
		"location":          fields.Location,
		"work_type":         fields.WorkType,
		"requirements":      strings.Join(fields.Requirements, ", "),
		"nice_to_have":      strings.Join(fields.NiceToHave, ", "),
		"experience_years":  fields.ExperienceYears,
		"salary":            fields.Salary,
		"short_description": fields.ShortDescription,
	}
}
