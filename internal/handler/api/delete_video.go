package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// DeleteVideoHandler deletes a video by ID.
func DeleteVideoHandler(svc videoSvc.Deleter) http.HandlerFunc {
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

		if err := svc.DeleteVideo(r.Context(), videoSvc.DeleteVideoInput{Caller: caller, ID: id}); err != nil {
			switch {
			case errors.Is(err, videoSvc.ErrNotFound):
				WriteError(w, http.StatusNotFound, "Video not found", nil)
			case errors.Is(err, videoSvc.ErrForbidden):
				WriteError(w, http.StatusForbidden, "You are not allowed to delete this video", nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Failed to delete video", err)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully deleted video #%s", id)
	}
}
