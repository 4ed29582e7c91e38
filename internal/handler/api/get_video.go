package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	"github.com/vidmill/videos-ms-go/internal/renderer"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

func GetVideoHandler(rdr renderer.HTTPRenderer, svc videoSvc.Getter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}
		caller, ok := api_context.CallerFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		raw, etag, err := rdr.RenderGetVideo(r.Context(), svc, caller, id)
		if err != nil {
			switch {
			case errors.Is(err, videoSvc.ErrNotFound):
				WriteError(w, http.StatusNotFound, "Video not found", nil)
			case errors.Is(err, videoSvc.ErrForbidden):
				WriteError(w, http.StatusForbidden, "You are not allowed to view this video", nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not get video details", err)
			}
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=10")
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			log.Printf("✅  Returning cached video #%s", id)
			return
		}

		RespondRawJSON(w, http.StatusOK, raw)
		log.Printf("✅  Successfully returned details for video #%s", id)
	}
}
