package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	"github.com/vidmill/videos-ms-go/internal/model"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// ListVideosHandler lists the videos visible to the caller, narrowed by the
// optional query filters.
func ListVideosHandler(svc videoSvc.Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api_context.CallerFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		filter, err := parseListFilter(r, caller)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		videos, err := svc.ListVideos(r.Context(), filter)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "could not list videos", err)
			return
		}
		if videos == nil {
			videos = []*model.Video{}
		}

		RespondJSON(w, http.StatusOK, videos)
		log.Printf("✅  Successfully listed %d videos", len(videos))
	}
}

func parseListFilter(r *http.Request, caller model.Caller) (videoSvc.ListFilter, error) {
	q := r.URL.Query()
	filter := videoSvc.ListFilter{Caller: caller}

	filter.OwnedOnly = q.Get("owned") == "true"

	switch safety := q.Get("safety"); safety {
	case "", "safe", "flagged":
		filter.SafetyStatus = safety
	default:
		return filter, fmt.Errorf("safety must be %q or %q, got %q", "safe", "flagged", safety)
	}

	filter.Category = q.Get("category")

	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("created_after is not a valid RFC3339 timestamp: %q", v)
		}
		filter.CreatedAfter = &t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("created_before is not a valid RFC3339 timestamp: %q", v)
		}
		filter.CreatedBefore = &t
	}

	if v := q.Get("min_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("min_size must be a non-negative integer, got %q", v)
		}
		filter.MinSize = &n
	}
	if v := q.Get("max_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("max_size must be a non-negative integer, got %q", v)
		}
		filter.MaxSize = &n
	}

	if v := q.Get("min_duration"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return filter, fmt.Errorf("min_duration must be a non-negative number, got %q", v)
		}
		filter.MinDuration = &f
	}
	if v := q.Get("max_duration"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return filter, fmt.Errorf("max_duration must be a non-negative number, got %q", v)
		}
		filter.MaxDuration = &f
	}

	return filter, nil
}
