package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/service"
	"go.uber.org/zap"
)

type JobHandler struct {
	jobService *service.JobService
	logger     *zap.Logger
}

func NewJobHandler(jobService *service.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// @Summary Create job
// @Description Creates a job site. The store assigns the id.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body domain.CreateJobRequest true "Job data"
// @Success 201 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Header 201 {string} Location "/jobs/{id}"
// @Router /jobs [post]
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	job, err := h.jobService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create job")
		return
	}

	w.Header().Set("Location", "/jobs/"+strconv.Itoa(job.ID))
	respondJSON(w, http.StatusCreated, job)
}

// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Success 200 {array} domain.JobDTO
// @Router /jobs [get]
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list jobs")
		return
	}

	respondJSON(w, http.StatusOK, jobs)
}

// @Summary Get job
// @Description Returns a job with its photos
// @Tags Jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /jobs/{id} [get]
func (h *JobHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get job")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// @Summary Delete job
// @Description Deletes a job and all of its photos
// @Tags Jobs
// @Param id path int true "Job ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.jobService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete job")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Search jobs by name
// @Description Case-insensitive substring match. An empty query returns every job. No match is a 404 with an empty array.
// @Tags Jobs
// @Produce json
// @Param query path string true "Name fragment"
// @Success 200 {array} domain.JobDTO
// @Failure 404 {array} domain.JobDTO
// @Router /jobs/search/{query} [get]
// @Router /jobs/search/name/{query} [get]
func (h *JobHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	query, err := pathParam(r, "query")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid search query")
		return
	}

	jobs, err := h.jobService.SearchByName(r.Context(), query)
	if err != nil {
		handleServiceError(w, h.logger, err, "search jobs")
		return
	}

	respondSearchResults(w, jobs)
}

// @Summary Search jobs by location
// @Description Returns jobs within one degree of latitude and longitude of the point, edges included
// @Tags Jobs
// @Produce json
// @Param coordinate path string true "Center as lat,lon" example(53.3,-139.9)
// @Success 200 {array} domain.JobDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {array} domain.JobDTO
// @Router /jobs/search/location/{coordinate} [get]
func (h *JobHandler) SearchByLocation(w http.ResponseWriter, r *http.Request) {
	raw, err := pathParam(r, "coordinate")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid coordinate")
		return
	}

	center, err := domain.ParseCoordinate(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := h.jobService.SearchByLocation(r.Context(), center)
	if err != nil {
		handleServiceError(w, h.logger, err, "search jobs")
		return
	}

	respondSearchResults(w, jobs)
}

// respondSearchResults answers 404 with an empty array when nothing matched
func respondSearchResults(w http.ResponseWriter, jobs []domain.JobDTO) {
	if len(jobs) == 0 {
		respondJSON(w, http.StatusNotFound, []domain.JobDTO{})
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// @Summary Job site report
// @Description Renders a PDF summary of the job and its photos
// @Tags Jobs
// @Produce application/pdf
// @Param id path int true "Job ID"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Router /jobs/{id}/report [get]
func (h *JobHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.jobService.WriteReport(r.Context(), id, &buf); err != nil {
		handleServiceError(w, h.logger, err, "render job report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"job-%d.pdf\"", id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
