package http

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"job-board/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequiredFields = "Por favor, preencha todos os campos obrigatórios."
	msgInvalidEmail   = "Por favor, insira um email válido."
)

var mailboxPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// newValidator registers the rules used by the request DTOs and reports
// fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("sortmode", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseSortMode(fl.Field().String())
		return err == nil
	})

	_ = validate.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return mailboxPattern.MatchString(fl.Field().String())
	})

	return validate
}

// ListQuery holds the query parameters of a stateless listing request.
type ListQuery struct {
	Q          string `json:"q"`
	Location   string `json:"location"`
	Company    string `json:"company"`
	Category   string `json:"category"`
	Contract   string `json:"contract"`
	Experience string `json:"experience"`
	Sort       string `json:"sort" validate:"omitempty,sortmode"`
	// Page outside 1..total pages is ignored and the first page served,
	// the same way a session treats it.
	Page int `json:"page"`
}

var errInvalidPage = errors.New("page must be an integer")

func listQueryFromValues(v url.Values) (ListQuery, error) {
	q := ListQuery{
		Q:          v.Get("q"),
		Location:   v.Get("location"),
		Company:    v.Get("company"),
		Category:   v.Get("category"),
		Contract:   v.Get("contract"),
		Experience: v.Get("experience"),
		Sort:       v.Get("sort"),
		Page:       1,
	}
	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return q, errInvalidPage
		}
		q.Page = page
	}
	return q, nil
}

// Criteria maps the parameters onto filter criteria; company replaces q.
func (q ListQuery) Criteria() domain.Criteria {
	c, _ := domain.CriteriaFromQuery(q.Q, q.Location, q.Company)
	c.Category = q.Category
	c.Contract = q.Contract
	c.Experience = q.Experience
	return c
}

// SortMode returns the requested mode, or "" when none was given.
func (q ListQuery) SortMode() domain.SortMode {
	return domain.SortMode(q.Sort)
}

// FiltersRequest is the body of PUT /sessions/{id}/filters.
type FiltersRequest struct {
	Search     string `json:"search"`
	Location   string `json:"location"`
	Category   string `json:"category"`
	Contract   string `json:"contract"`
	Experience string `json:"experience"`
}

func (r FiltersRequest) ToCriteria() domain.Criteria {
	return domain.Criteria(r)
}

// SortRequest is the body of PUT /sessions/{id}/sort.
type SortRequest struct {
	Sort string `json:"sort" validate:"required,sortmode"`
}

// PageRequest is the body of PUT /sessions/{id}/page. Pages outside the
// current range are accepted and ignored by the session.
type PageRequest struct {
	Page int `json:"page"`
}

// ApplyRequest is the body of POST /sessions/{id}/applications.
type ApplyRequest struct {
	JobID int `json:"job_id" validate:"required,gt=0"`
}

// ContactRequest is the contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,mailbox"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

// Normalize trims the fields, so blank input counts as missing.
func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *ContactRequest) ToDomain() domain.ContactMessage {
	return domain.ContactMessage{
		Name:    r.Name,
		Email:   r.Email,
		Subject: r.Subject,
		Message: r.Message,
	}
}

// contactErrorMessage picks the form message for a validation failure:
// missing fields win over a malformed e-mail.
func contactErrorMessage(errs validator.ValidationErrors) string {
	for _, e := range errs {
		if e.Tag() == "required" {
			return msgRequiredFields
		}
	}
	return msgInvalidEmail
}

// LiveMessage is a client frame on the live session socket.
type LiveMessage struct {
	// Type is one of input, submit, select, sort, page.
	Type     string         `json:"type"`
	Criteria FiltersRequest `json:"criteria"`
	Sort     string         `json:"sort,omitempty"`
	Page     int            `json:"page,omitempty"`
}

// LiveUpdate is a server frame on the live session socket.
type LiveUpdate struct {
	Type    string `json:"type"` // view, ignored, error, closed
	View    any    `json:"view,omitempty"`
	Message string `json:"message,omitempty"`
}
