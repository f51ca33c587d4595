package extraction

import "strings"

// JobFields is the fixed structured-extraction schema. Company and Role are
// required; everything else is best-effort.
type JobFields struct {
	Company          string   `json:"company"`
	Role             string   `json:"role"`
	Location         string   `json:"location,omitempty"`
	WorkType         string   `json:"work_type,omitempty"`
	Requirements     []string `json:"requirements"`
	NiceToHave       []string `json:"nice_to_have,omitempty"`
	ExperienceYears  string   `json:"experience_years,omitempty"`
	Salary           string   `json:"salary,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
}

// Normalize trims whitespace and drops empty requirement phrases in place.
func (f *JobFields) Normalize() {
	f.Company = strings.TrimSpace(f.Company)
	f.Role = strings.TrimSpace(f.Role)
	f.Requirements = normalizePhrases(f.Requirements)
	f.NiceToHave = normalizePhrases(f.NiceToHave)
}

// IsEmpty reports whether no structured data was extracted.
func (f *JobFields) IsEmpty() bool {
	return f == nil || (f.Company == "" && f.Role == "")
}

func normalizePhrases(phrases []string) []string {
	if len(phrases) == 0 {
		return phrases
	}
	out := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
