package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/vidmill/videos-ms-go/internal/api_context"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/mock"
	"github.com/vidmill/videos-ms-go/internal/model"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

var (
	testID     = db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	testCaller = model.Caller{ID: db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555")), Role: model.RoleEditor}
)

func authedRequest(method, target string, id *db.UUID) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	ctx := api_context.WithCaller(r.Context(), testCaller)
	if id != nil {
		ctx = api_context.WithID(ctx, *id)
	}
	return r.WithContext(ctx)
}

func TestGetVideoHandler_Success(t *testing.T) {
	rdr := &mock.HTTPRenderer{Raw: []byte(`{"id":"abc"}`), Etag: `"deadbeef"`}
	h := GetVideoHandler(rdr, &mock.Getter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/videos/"+testID.String(), &testID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if got := rec.Header().Get("ETag"); got != `"deadbeef"` {
		t.Errorf("ETag = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"id":"abc"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rdr.SeenID != testID {
		t.Errorf("renderer got id %s; want %s", rdr.SeenID, testID)
	}
	if rdr.SeenAuth != testCaller {
		t.Errorf("renderer got caller %+v; want %+v", rdr.SeenAuth, testCaller)
	}
}

func TestGetVideoHandler_NotModified(t *testing.T) {
	rdr := &mock.HTTPRenderer{Raw: []byte(`{}`), Etag: `"deadbeef"`}
	h := GetVideoHandler(rdr, &mock.Getter{})

	req := authedRequest(http.MethodGet, "/videos/"+testID.String(), &testID)
	req.Header.Set("If-None-Match", `"deadbeef"`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d; want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q; want empty", rec.Body.String())
	}
}

func TestGetVideoHandler_NotFound(t *testing.T) {
	rdr := &mock.HTTPRenderer{Err: videoSvc.ErrNotFound}
	h := GetVideoHandler(rdr, &mock.Getter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/videos/"+testID.String(), &testID))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
}

func TestGetVideoHandler_Forbidden(t *testing.T) {
	rdr := &mock.HTTPRenderer{Err: videoSvc.ErrForbidden}
	h := GetVideoHandler(rdr, &mock.Getter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/videos/"+testID.String(), &testID))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", rec.Code)
	}
}

func TestGetVideoHandler_MissingID(t *testing.T) {
	h := GetVideoHandler(&mock.HTTPRenderer{}, &mock.Getter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/videos/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
}

func TestGetVideoHandler_MissingCaller(t *testing.T) {
	h := GetVideoHandler(&mock.HTTPRenderer{}, &mock.Getter{})

	req := httptest.NewRequest(http.MethodGet, "/videos/"+testID.String(), nil)
	req = req.WithContext(api_context.WithID(req.Context(), testID))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", rec.Code)
	}
}
