package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart body is buffered in memory before spilling to disk
const multipartMemory = 8 << 20

type PhotoHandler struct {
	photoService   *service.PhotoService
	jobService     *service.JobService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewPhotoHandler(photoService *service.PhotoService, jobService *service.JobService, maxUploadBytes int64, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoService:   photoService,
		jobService:     jobService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// @Summary List job photos
// @Tags Photos
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {array} domain.JobSitePhotoDTO
// @Failure 404 {object} domain.APIError
// @Router /jobs/{id}/photos [get]
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	photos, err := h.jobService.ListPhotos(r.Context(), jobID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list photos")
		return
	}

	respondJSON(w, http.StatusOK, photos)
}

// @Summary Create photo metadata
// @Description Records a photo for a job without uploading a binary
// @Tags Photos
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body domain.CreateJobSitePhotoRequest true "Photo metadata"
// @Success 201 {object} domain.JobSitePhotoDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /jobs/{id}/photos [post]
func (h *PhotoHandler) CreateMetadata(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.CreateJobSitePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	photo, err := h.photoService.CreateMetadata(r.Context(), jobID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create photo")
		return
	}

	respondCreatedPhoto(w, photo)
}

// @Summary Upload photo
// @Description Uploads a photo binary and records it against the job. Geotag fields are optional.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Job ID"
// @Param file formData file true "Photo"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param heading formData integer false "Compass heading in degrees"
// @Success 201 {object} domain.JobSitePhotoDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Router /jobs/{id}/photos/upload [post]
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}

	upload := &domain.PhotoUpload{JobID: jobID}
	if upload.Latitude, err = optionalFloat(r.FormValue("latitude")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude")
		return
	}
	if upload.Longitude, err = optionalFloat(r.FormValue("longitude")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude")
		return
	}
	if upload.Heading, err = optionalInt(r.FormValue("heading")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid heading")
		return
	}

	h.upload(w, r, upload)
}

// @Summary Upload geotagged photo
// @Description Uploads a photo binary with its geotag in the path
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Job ID"
// @Param lat path number true "Latitude"
// @Param lng path number true "Longitude"
// @Param heading path integer true "Compass heading in degrees"
// @Param file formData file true "Photo"
// @Success 201 {object} domain.JobSitePhotoDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Router /jobs/{id}/photos/{lat}/{lng}/{heading} [post]
func (h *PhotoHandler) UploadGeotagged(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	lat, err := domain.ParseDegrees(chi.URLParam(r, "lat"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude")
		return
	}

	lng, err := domain.ParseDegrees(chi.URLParam(r, "lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude")
		return
	}

	heading, err := strconv.Atoi(chi.URLParam(r, "heading"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid heading: must be an integer")
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}

	h.upload(w, r, &domain.PhotoUpload{
		JobID:     jobID,
		Latitude:  lat,
		Longitude: lng,
		Heading:   heading,
	})
}

// parseMultipart enforces the content type and size cap. It writes the error response itself.
func (h *PhotoHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		respondWithError(w, http.StatusBadRequest, "Request must be multipart/form-data")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadBytes/(1024*1024)))
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart body")
		return false
	}

	return true
}

func (h *PhotoHandler) upload(w http.ResponseWriter, r *http.Request, upload *domain.PhotoUpload) {
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	upload.FileName = header.Filename
	if upload.FileName == "" {
		upload.FileName = "upload"
	}

	photo, err := h.photoService.Upload(r.Context(), upload, header.Header.Get("Content-Type"), file)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload photo")
		return
	}

	respondCreatedPhoto(w, photo)
}

func respondCreatedPhoto(w http.ResponseWriter, photo *domain.JobSitePhotoDTO) {
	w.Header().Set("Location", "/jobs/"+strconv.Itoa(photo.JobID))
	respondJSON(w, http.StatusCreated, photo)
}

func optionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return domain.ParseDegrees(s)
}

func optionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
