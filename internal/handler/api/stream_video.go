package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// StreamVideoHandler serves the video bytes, honoring a single Range header
// with 206 responses so players can seek.
func StreamVideoHandler(svc videoSvc.Streamer) http.HandlerFunc {
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

		out, err := svc.StreamVideo(r.Context(), videoSvc.StreamVideoInput{
			Caller:      caller,
			ID:          id,
			RangeHeader: r.Header.Get("Range"),
		})
		if err != nil {
			switch {
			case errors.Is(err, videoSvc.ErrNotFound), errors.Is(err, videoSvc.ErrObjectNotFound):
				WriteError(w, http.StatusNotFound, "Video not found", nil)
			case errors.Is(err, videoSvc.ErrForbidden):
				WriteError(w, http.StatusForbidden, "You are not allowed to view this video", nil)
			case errors.Is(err, videoSvc.ErrRangeNotSatisfiable):
				w.Header().Set("Content-Range", "bytes */*")
				WriteError(w, http.StatusRequestedRangeNotSatisfiable, err.Error(), nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not stream video", err)
			}
			return
		}
		defer func() { _ = out.Body.Close() }()

		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Type", out.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(out.ContentLength, 10))

		status := http.StatusOK
		if out.Range != nil {
			w.Header().Set("Content-Range", out.Range.ContentRange(out.TotalSize))
			status = http.StatusPartialContent
		}
		w.WriteHeader(status)

		if _, err := io.Copy(w, out.Body); err != nil {
			// headers are gone; all we can do is log the broken pipe
			log.Printf("❌  Streaming video #%s aborted: %v", id, err)
			return
		}
		log.Printf("✅  Successfully streamed video #%s (%d bytes)", id, out.ContentLength)
	}
}
