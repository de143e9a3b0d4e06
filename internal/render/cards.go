// Package render turns listing state into the view models the pages draw.
// It knows nothing about filtering; callers hand it finished slices.
package render

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"

	"job-board/internal/domain"
)

const (
	listDescriptionLimit     = 200
	featuredDescriptionLimit = 120
	companyDescriptionLimit  = 100
	maxSkillTags             = 3
)

// JobCard is one entry of a job list or grid.
type JobCard struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Salary      string   `json:"salary"`
	Location    string   `json:"location"`
	Type        string   `json:"type"`
	Level       string   `json:"level"`
	Posted      string   `json:"posted,omitempty"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	DetailURL   string   `json:"detail_url"`
}

// CompanyCard is one entry of the companies grid.
type CompanyCard struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
	Employees   string `json:"employees"`
	Location    string `json:"location"`
	ProfileURL  string `json:"profile_url"`
	JobsURL     string `json:"jobs_url"`
	JobsLabel   string `json:"jobs_label"`
}

// NewJobCard renders a job for the listing page.
func NewJobCard(job domain.Job) JobCard {
	card := baseJobCard(job, listDescriptionLimit)
	card.Posted = PostedLabel(job.PostedDays)
	card.Tags = append([]string{job.Category}, job.Skills[:min(len(job.Skills), maxSkillTags)]...)
	return card
}

// NewFeaturedJobCard renders a job for the home page grid.
func NewFeaturedJobCard(job domain.Job) JobCard {
	return baseJobCard(job, featuredDescriptionLimit)
}

func baseJobCard(job domain.Job, limit int) JobCard {
	return JobCard{
		ID:          job.ID,
		Title:       job.Title,
		Company:     job.Company,
		Salary:      job.Salary,
		Location:    job.Location,
		Type:        job.Type,
		Level:       job.Level,
		Description: Excerpt(job.Description, limit),
		DetailURL:   JobDetailURL(job.ID),
	}
}

// NewCompanyCard renders a company for the companies grid.
func NewCompanyCard(c domain.Company) CompanyCard {
	name := encodeURIComponent(c.Name)
	return CompanyCard{
		Name:        c.Name,
		Sector:      c.Sector,
		Description: Excerpt(c.Description, companyDescriptionLimit),
		Employees:   fmt.Sprintf("%s funcionários", c.Employees),
		Location:    c.Location,
		ProfileURL:  "company-profile.html?name=" + name,
		JobsURL:     "jobs.html?company=" + name,
		JobsLabel:   fmt.Sprintf("Ver Vagas (%d)", c.OpenJobs),
	}
}

func JobCards(jobs []domain.Job) []JobCard {
	cards := make([]JobCard, len(jobs))
	for i, job := range jobs {
		cards[i] = NewJobCard(job)
	}
	return cards
}

func FeaturedJobCards(jobs []domain.Job) []JobCard {
	cards := make([]JobCard, len(jobs))
	for i, job := range jobs {
		cards[i] = NewFeaturedJobCard(job)
	}
	return cards
}

func CompanyCards(companies []domain.Company) []CompanyCard {
	cards := make([]CompanyCard, len(companies))
	for i, c := range companies {
		cards[i] = NewCompanyCard(c)
	}
	return cards
}

// JobDetailURL links a card to its detail page.
func JobDetailURL(id int) string {
	return fmt.Sprintf("job-detail.html?id=%d", id)
}

// PostedLabel is the "posted N days ago" line of a job card.
func PostedLabel(days int) string {
	return fmt.Sprintf("Publicado há %d dias", days)
}

// Excerpt keeps the first limit UTF-16 units of s and always appends "...".
func Excerpt(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) > limit {
		units = units[:limit]
		if last := units[limit-1]; last >= 0xD800 && last < 0xDC00 {
			units = units[:limit-1]
		}
	}
	return string(utf16.Decode(units)) + "..."
}

// BuildSearchURL is where the home search box sends the visitor.
func BuildSearchURL(q, location string) string {
	var params []string
	if q != "" {
		params = append(params, "q="+url.QueryEscape(q))
	}
	if location != "" {
		params = append(params, "location="+url.QueryEscape(location))
	}
	return "jobs.html?" + strings.Join(params, "&")
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
