package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jordan/resume-tailor/internal/extraction"
	"github.com/jordan/resume-tailor/internal/templates"
)

func tmpl(source string) *templates.Template {
	return &templates.Template{ID: "test", Source: source}
}

func TestRender_SubstitutesFields(t *testing.T) {
	fields := &extraction.JobFields{
		Company:      "Acme",
		Role:         "Engineer",
		Requirements: []string{"Go", "SQL"},
	}

	out := Render(tmpl(`\section{\VAR{role} at \VAR{company}} Skills: \VAR{requirements}`), fields)

	assert.Equal(t, `\section{Engineer at Acme} Skills: Go, SQL`, out)
}

func TestRender_EscapesValues(t *testing.T) {
	fields := &extraction.JobFields{Company: "A&B Corp", Role: "C# Dev"}

	out := Render(tmpl(`\VAR{company} / \VAR{role}`), fields)

	assert.Equal(t, `A\&B Corp / C\# Dev`, out)
}

func TestRender_UnresolvedPlaceholderGetsNeutralValue(t *testing.T) {
	fields := &extraction.JobFields{Company: "Acme", Role: "Engineer"}

	out := Render(tmpl(`Salary: \VAR{salary}, Unknown: \VAR{not_a_field}`), fields)

	assert.Equal(t, "Salary: "+NeutralValue+", Unknown: "+NeutralValue, out)
}

func TestRender_NilFields(t *testing.T) {
	out := Render(tmpl(`\VAR{company}`), nil)
	assert.Equal(t, NeutralValue, out)
}

func TestRender_TemplateWithoutPlaceholders(t *testing.T) {
	source := `\documentclass{article}\begin{document}static\end{document}`
	assert.Equal(t, source, Render(tmpl(source), &extraction.JobFields{Company: "Acme"}))
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders(tmpl(`\VAR{company} \VAR{role} \VAR{company}`))
	assert.Equal(t, []string{"company", "role"}, names)
}
