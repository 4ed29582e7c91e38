package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/vidmill/videos-ms-go/internal/api_context"
	"github.com/vidmill/videos-ms-go/internal/broadcast"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// VideoEventsHandler streams processing updates for one video over SSE until
// the client disconnects. The same access filter as the detail endpoint
// applies, so events of a private video never leak to strangers.
func VideoEventsHandler(bus broadcast.Broadcaster, svc videoSvc.Getter) http.HandlerFunc {
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

		if _, err := svc.GetVideo(r.Context(), videoSvc.GetVideoInput{Caller: caller, ID: id}); err != nil {
			switch {
			case errors.Is(err, videoSvc.ErrNotFound):
				WriteError(w, http.StatusNotFound, "Video not found", nil)
			case errors.Is(err, videoSvc.ErrForbidden):
				WriteError(w, http.StatusForbidden, "You are not allowed to view this video", nil)
			default:
				WriteError(w, http.StatusInternalServerError, "Could not subscribe to video events", err)
			}
			return
		}

		serveEvents(w, r, bus, broadcast.VideoTopic(id.String()))
	}
}

// ProcessingEventsHandler streams every processing update over SSE, the feed
// dashboards watch.
func ProcessingEventsHandler(bus broadcast.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := api_context.CallerFromContext(r.Context()); !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		serveEvents(w, r, bus, broadcast.TopicProcessingUpdates)
	}
}

func serveEvents(w http.ResponseWriter, r *http.Request, bus broadcast.Broadcaster, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	sub, err := bus.Subscribe(r.Context(), topic)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "could not subscribe", err)
		return
	}
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Printf("✅  Subscribed to topic %q", topic)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.C():
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("❌  Failed to encode event on topic %q: %v", topic, err)
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
