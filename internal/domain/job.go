package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Job is a single listing record as published in the jobs feed.
type Job struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Type        string   `json:"type"`
	Level       string   `json:"level"`
	Category    string   `json:"category"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
	PostedDays  int      `json:"postedDays"`
	Skills      []string `json:"skills,omitempty"`
}

// Validate checks the fields the pipeline relies on. Feeds are trusted, so
// this is only used to log suspicious records, never to drop them.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("job %d: title cannot be empty", j.ID)
	}
	if j.PostedDays < 0 {
		return fmt.Errorf("job %d: postedDays cannot be negative", j.ID)
	}
	return nil
}

// Company is a single record of the companies feed.
type Company struct {
	Name        string    `json:"name"`
	Sector      string    `json:"sector"`
	Description string    `json:"description"`
	Employees   Headcount `json:"employees"`
	Location    string    `json:"location"`
	OpenJobs    int       `json:"openJobs,omitempty"`
}

// Headcount accepts both numbers and ranges such as "50-100".
type Headcount string

func (h *Headcount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*h = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*h = Headcount(str)
		return nil
	}
	*h = Headcount(s)
	return nil
}
