package normalize

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jobBoardHosts maps known job-board domains to the path segment index that
// holds the company slug (e.g. boards.greenhouse.io/<company>/jobs/123).
var jobBoardHosts = map[string]int{
	"greenhouse.io":        0,
	"boards.greenhouse.io": 0,
	"lever.co":             0,
	"jobs.lever.co":        0,
	"smartrecruiters.com":  0,
}

// workdayHost carries the company in the subdomain instead of the path
// (company.wd5.myworkdayjobs.com/en-US/careers/job/...).
const workdayHost = "myworkdayjobs.com"

// titleCompanyPatterns match "Role at Company", "Role - Company" and
// "Company | Role" page titles.
var titleCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bat\s+([A-Z][A-Za-z0-9\s&.]+?)(?:\s*[-|]|$)`),
	regexp.MustCompile(`[-|]\s*([A-Z][A-Za-z0-9\s&.]+?)(?:\s*[-|]|$)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s&.]+?)\s*[-|]`),
}

var genericTitleWords = map[string]bool{
	"job": true, "jobs": true, "career": true, "careers": true,
	"hiring": true, "apply": true,
}

// CompanyHint extracts a best-effort company name from the page markup and
// URL. The result seeds the extraction prompt; an empty string means no
// reliable signal was found. Sources are tried most-structured first:
// JSON-LD, meta tags, job-board URL patterns, then the page title.
func CompanyHint(rawMarkup, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return companyFromURL(pageURL)
	}

	if c := companyFromJSONLD(doc); c != "" {
		return c
	}
	if c := companyFromMeta(doc); c != "" {
		return c
	}
	if c := companyFromURL(pageURL); c != "" {
		return c
	}
	return companyFromTitle(doc.Find("title").First().Text())
}

type jsonLDNode struct {
	Type               string          `json:"@type"`
	Name               string          `json:"name"`
	HiringOrganization json.RawMessage `json:"hiringOrganization"`
}

func companyFromJSONLD(doc *goquery.Document) string {
	var company string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		nodes := []json.RawMessage{}
		if strings.HasPrefix(raw, "[") {
			if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
				return true
			}
		} else {
			nodes = append(nodes, json.RawMessage(raw))
		}

		for _, rawNode := range nodes {
			var node jsonLDNode
			if err := json.Unmarshal(rawNode, &node); err != nil {
				continue
			}
			switch node.Type {
			case "JobPosting":
				if name := hiringOrgName(node.HiringOrganization); name != "" {
					company = name
					return false
				}
			case "Organization":
				if node.Name != "" {
					company = node.Name
					return false
				}
			}
		}
		return true
	})
	return company
}

// hiringOrgName handles both object and bare-string hiringOrganization values.
func hiringOrgName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var org struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &org); err == nil && org.Name != "" {
		return org.Name
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	return ""
}

func companyFromMeta(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="application-name"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	return ""
}

func companyFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	if strings.HasSuffix(host, workdayHost) {
		label, _, found := strings.Cut(host, ".")
		if found && label != "" && !strings.HasPrefix(workdayHost, label) {
			return titleizeSlug(label)
		}
		return ""
	}

	var segments []string
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			segments = append(segments, p)
		}
	}

	for boardHost, idx := range jobBoardHosts {
		if strings.Contains(host, boardHost) && len(segments) > idx {
			return titleizeSlug(segments[idx])
		}
	}
	return ""
}

func companyFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	for _, pattern := range titleCompanyPatterns {
		match := pattern.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		company := strings.TrimSpace(match[1])
		if !genericTitleWords[strings.ToLower(company)] {
			return company
		}
	}
	return ""
}

// titleizeSlug turns "acme-robotics" into "Acme Robotics".
func titleizeSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
