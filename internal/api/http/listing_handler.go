package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"job-board/internal/domain"
	"job-board/internal/listing"
	"job-board/internal/render"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SessionResponse carries a session id and its rendered view.
type SessionResponse struct {
	ID      string             `json:"id"`
	View    render.ListingPage `json:"view"`
	Applied *bool              `json:"applied,omitempty"`
}

// JobDetailResponse is a job with its card rendering. SalaryAmount is the
// upper salary figure in reais, empty when the salary has none.
type JobDetailResponse struct {
	Job          domain.Job     `json:"job"`
	Card         render.JobCard `json:"card"`
	SalaryAmount string         `json:"salary_amount,omitempty"`
}

// ApplicationView is an application record with its age.
type ApplicationView struct {
	*domain.ApplicationRecord
	Submitted string `json:"submitted"`
}

// CompanyProfileResponse is a company with the jobs its name finds.
type CompanyProfileResponse struct {
	Company render.CompanyCard `json:"company"`
	Jobs    []render.JobCard   `json:"jobs"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"catalog_loaded": h.catalog.Ready(),
		"jobs":           len(h.catalog.Jobs()),
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.Home(h.catalog.Featured()))
}

// handleSearch answers the home search box with the listing page URL.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	writeJSON(w, http.StatusOK, map[string]string{
		"url": render.BuildSearchURL(v.Get("q"), v.Get("location")),
	})
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ListJobs")
	defer span.End()

	q, err := listQueryFromValues(r.URL.Query())
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(q); err != nil {
		writeValidationError(w, span, err)
		return
	}

	view, err := h.listings.Query(ctx, q.Criteria(), q.SortMode(), q.Page)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("listing.total", view.Total))
	writeJSON(w, http.StatusOK, render.Listing(view))
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.GetJob")
	defer span.End()

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, "job id must be an integer")
		return
	}
	span.SetAttributes(attribute.Int("job.id", id))

	if !h.catalog.Ready() {
		h.writeServiceError(w, span, h.catalog.LoadErr())
		return
	}
	job, err := h.catalog.Job(id)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	resp := JobDetailResponse{Job: job, Card: render.NewJobCard(job)}
	if amount := listing.ExtractSalary(job.Salary); amount > 0 {
		resp.SalaryAmount = render.FormatSalaryAmount(amount)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.ListCompanies")
	defer span.End()

	if err := h.catalog.CompaniesErr(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "companies feed unavailable")
		writeError(w, http.StatusServiceUnavailable, "Erro ao carregar empresas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"companies": render.CompanyCards(h.catalog.Companies()),
	})
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "handler.GetCompany")
	defer span.End()

	name := r.PathValue("name")
	span.SetAttributes(attribute.String("company.name", name))

	company, jobs, err := h.catalog.CompanyProfile(name)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, CompanyProfileResponse{
		Company: render.NewCompanyCard(company),
		Jobs:    render.JobCards(jobs),
	})
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.OpenSession")
	defer span.End()

	v := r.URL.Query()
	id, view, err := h.listings.Open(ctx, v.Get("q"), v.Get("location"), v.Get("company"))
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, View: render.Listing(view)})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetSession")
	defer span.End()

	id := r.PathValue("id")
	view, err := h.listings.View(ctx, id)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: render.Listing(view)})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.CloseSession")
	defer span.End()

	if err := h.listings.Close(ctx, r.PathValue("id")); err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ApplyFilters")
	defer span.End()

	var req FiltersRequest
	if err := decodeBody(r, &req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	view, err := h.listings.ApplyFilters(ctx, id, req.ToCriteria())
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: render.Listing(view)})
}

func (h *Handler) handleChangeSort(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ChangeSort")
	defer span.End()

	var req SortRequest
	if err := decodeBody(r, &req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, span, err)
		return
	}

	id := r.PathValue("id")
	view, err := h.listings.ChangeSort(ctx, id, domain.SortMode(req.Sort))
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: render.Listing(view)})
}

func (h *Handler) handleChangePage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ChangePage")
	defer span.End()

	var req PageRequest
	if err := decodeBody(r, &req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	view, applied, err := h.listings.ChangePage(ctx, id, req.Page)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	span.SetAttributes(attribute.Int("page", req.Page), attribute.Bool("applied", applied))
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, View: render.Listing(view), Applied: &applied})
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Apply")
	defer span.End()

	var req ApplyRequest
	if err := decodeBody(r, &req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, span, err)
		return
	}

	record, msg, err := h.applications.Apply(ctx, r.PathValue("id"), req.JobID)
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"application": record,
		"message":     msg,
	})
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ListApplications")
	defer span.End()

	records, err := h.applications.List(ctx, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, span, err)
		return
	}
	now := time.Now()
	views := make([]ApplicationView, len(records))
	for i, rec := range records {
		views[i] = ApplicationView{ApplicationRecord: rec, Submitted: render.RelativeDate(rec.CreatedAt, now)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": views})
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Contact")
	defer span.End()

	var req ContactRequest
	if err := decodeBody(r, &req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Normalize()
	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		msg := msgRequiredFields
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg = contactErrorMessage(verrs)
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	msg := h.contact.Submit(ctx, req.ToDomain())
	writeJSON(w, http.StatusCreated, msg)
}
