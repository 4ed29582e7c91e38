package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
	"github.com/vidmill/videos-ms-go/internal/validation"
)

// multipartMemoryLimit is how much of the form is held in memory before
// spilling to temp files.
const multipartMemoryLimit = 32 << 20

type UploadVideoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=100"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=public private"`
}

func UploadVideoHandler(svc videoSvc.Uploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api_context.CallerFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if !caller.CanUpload() {
			WriteError(w, http.StatusForbidden, "You are not allowed to upload videos", nil)
			return
		}

		// the declared size still gets checked by the use case; the reader
		// cap is the hard backstop against a lying Content-Length
		r.Body = http.MaxBytesReader(w, r.Body, videoSvc.MaxFileSize+multipartMemoryLimit)
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				WriteError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large", nil)
				return
			}
			WriteError(w, http.StatusBadRequest, "invalid multipart payload", err)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		req := UploadVideoRequest{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Visibility:  r.FormValue("visibility"),
		}
		if errs := validation.ValidateStruct(req); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to encode validation errors", err)
				return
			}
			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			log.Printf("❌  Validation failed: %s", errsJSON)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "video file is required", err)
			return
		}
		defer func() { _ = file.Close() }()

		input := videoSvc.UploadVideoInput{
			Caller:      caller,
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Visibility:  req.Visibility,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			SizeBytes:   header.Size,
			File:        file,
		}
		v, err := svc.UploadVideo(r.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, videoSvc.ErrValidation):
				WriteError(w, http.StatusBadRequest, err.Error(), nil)
			case errors.Is(err, videoSvc.ErrUnsupportedFormat):
				WriteError(w, http.StatusUnsupportedMediaType, err.Error(), nil)
			case errors.Is(err, videoSvc.ErrPayloadTooLarge):
				WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), nil)
			default:
				WriteError(w, http.StatusInternalServerError, "could not ingest video", err)
			}
			return
		}

		RespondJSON(w, http.StatusCreated, v)
		log.Printf("✅  Successfully ingested video #%s", v.ID)
	}
}
