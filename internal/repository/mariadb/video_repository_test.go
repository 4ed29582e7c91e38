package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

var (
	testVideoID = db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	testOwnerID = db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
)

func newStub(t *testing.T) (*VideoRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	return NewVideoRepository(sqlDB), mock, func() { _ = sqlDB.Close() }
}

func videoRows(v *model.Video) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "visibility", "owner_id",
		"asset_key", "size_bytes", "duration_seconds", "status",
		"progress_percent", "sensitivity", "failure_message", "created_at", "updated_at",
	}).AddRow(
		v.ID, v.Title, v.Description, v.Category, v.Visibility, v.OwnerID,
		v.AssetKey, v.SizeBytes, v.DurationSeconds, v.Status,
		v.ProgressPercent, nil, v.FailureMessage, v.CreatedAt, v.UpdatedAt,
	)
}

func TestVideoRepository_Create_Success(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	v := &model.Video{
		ID:         testVideoID,
		Title:      "Holiday cut",
		Category:   model.DefaultCategory,
		Visibility: model.VisibilityPublic,
		OwnerID:    testOwnerID,
		AssetKey:   "videos/1-1.mp4",
		SizeBytes:  12345,
		Status:     model.VideoStatusPending,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta(`
      INSERT INTO videos
        (id, title, description, category, visibility, owner_id, asset_key, size_bytes, status, progress_percent, created_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)).
		WithArgs(
			v.ID, v.Title, v.Description, v.Category, v.Visibility,
			v.OwnerID, v.AssetKey, v.SizeBytes, v.Status, v.ProgressPercent, v.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), v); err != nil {
		t.Errorf("Create() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestVideoRepository_Create_ExecError(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec("INSERT INTO videos").
		WillReturnError(errors.New("db.Exec failed"))

	err := repo.Create(context.Background(), &model.Video{ID: testVideoID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "db.Exec failed" {
		t.Errorf("expected 'db.Exec failed', got %q", err.Error())
	}
}

func TestVideoRepository_GetByID_Success(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	want := &model.Video{
		ID:         testVideoID,
		Title:      "Holiday cut",
		Category:   model.DefaultCategory,
		Visibility: model.VisibilityPrivate,
		OwnerID:    testOwnerID,
		AssetKey:   "videos/1-1.mp4",
		SizeBytes:  98765,
		Status:     model.VideoStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + videoColumns + ` FROM videos WHERE id = ?`)).
		WithArgs(testVideoID).
		WillReturnRows(videoRows(want))

	got, err := repo.GetByID(context.Background(), testVideoID)
	if err != nil {
		t.Fatalf("GetByID() returned unexpected error: %v", err)
	}
	if got.Title != want.Title || got.Status != want.Status || got.AssetKey != want.AssetKey {
		t.Errorf("GetByID() = %+v, want %+v", got, want)
	}
}

func TestVideoRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectQuery("SELECT").
		WithArgs(testVideoID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), testVideoID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestVideoRepository_Delete_Gone(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM videos WHERE id = ?`)).
		WithArgs(testVideoID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), testVideoID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for already-deleted record, got %v", err)
	}
}

func TestVideoRepository_List_ReaderSeesPublicOrOwn(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	caller := model.Caller{ID: testOwnerID, Role: model.RoleReader}

	mock.ExpectQuery(regexp.QuoteMeta(`(visibility = ? OR owner_id = ?)`)).
		WithArgs(model.VisibilityPublic, caller.ID).
		WillReturnRows(videoRows(&model.Video{ID: testVideoID, OwnerID: testOwnerID}))

	videos, err := repo.List(context.Background(), videoSvc.ListFilter{Caller: caller})
	if err != nil {
		t.Fatalf("List() returned unexpected error: %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("expected 1 video, got %d", len(videos))
	}
}

func TestVideoRepository_List_AdminSeesAll(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	caller := model.Caller{ID: testOwnerID, Role: model.RoleAdmin}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + videoColumns + ` FROM videos ORDER BY created_at DESC`)).
		WillReturnRows(videoRows(&model.Video{ID: testVideoID}))

	videos, err := repo.List(context.Background(), videoSvc.ListFilter{Caller: caller})
	if err != nil {
		t.Fatalf("List() returned unexpected error: %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("expected 1 video, got %d", len(videos))
	}
}

func TestVideoRepository_List_Filters(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	caller := model.Caller{ID: testOwnerID, Role: model.RoleAdmin}
	minSize := int64(1000)
	maxDur := 300.0
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`JSON_EXTRACT(sensitivity, '$.is_safe') = TRUE AND category = ? AND created_at >= ? AND size_bytes >= ? AND duration_seconds <= ?`)).
		WithArgs("Travel", after, minSize, maxDur).
		WillReturnRows(videoRows(&model.Video{ID: testVideoID}))

	_, err := repo.List(context.Background(), videoSvc.ListFilter{
		Caller:       caller,
		SafetyStatus: "safe",
		Category:     "Travel",
		CreatedAfter: &after,
		MinSize:      &minSize,
		MaxDuration:  &maxDur,
	})
	if err != nil {
		t.Fatalf("List() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestVideoRepository_List_OwnedOnly(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	caller := model.Caller{ID: testOwnerID, Role: model.RoleEditor}

	mock.ExpectQuery(regexp.QuoteMeta(`owner_id = ?`)).
		WithArgs(caller.ID).
		WillReturnRows(videoRows(&model.Video{ID: testVideoID, OwnerID: testOwnerID}))

	if _, err := repo.List(context.Background(), videoSvc.ListFilter{Caller: caller, OwnedOnly: true}); err != nil {
		t.Fatalf("List() returned unexpected error: %v", err)
	}
}

func TestVideoRepository_SetProcessing_Success(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE videos
      SET status = ?, progress_percent = 0
      WHERE id = ? AND status = ?
    `)).
		WithArgs(model.VideoStatusProcessing, testVideoID, model.VideoStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetProcessing(context.Background(), testVideoID); err != nil {
		t.Errorf("SetProcessing() returned unexpected error: %v", err)
	}
}

func TestVideoRepository_SetProcessing_RecordGone(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec("UPDATE videos").
		WithArgs(model.VideoStatusProcessing, testVideoID, model.VideoStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetProcessing(context.Background(), testVideoID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows when record is gone or already claimed, got %v", err)
	}
}

func TestVideoRepository_SetProgress_GuardedByStatus(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE videos
      SET progress_percent = ?
      WHERE id = ? AND status = ? AND progress_percent <= ?
    `)).
		WithArgs(30, testVideoID, model.VideoStatusProcessing, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetProgress(context.Background(), testVideoID, 30); err != nil {
		t.Errorf("SetProgress() returned unexpected error: %v", err)
	}
}

func TestVideoRepository_SetCompleted_Success(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	safe := true
	verdict := model.Sensitivity{IsSafe: &safe}

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE videos
      SET status = ?, progress_percent = 100, sensitivity = ?
      WHERE id = ? AND status = ?
    `)).
		WithArgs(model.VideoStatusCompleted, verdict, testVideoID, model.VideoStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetCompleted(context.Background(), testVideoID, verdict); err != nil {
		t.Errorf("SetCompleted() returned unexpected error: %v", err)
	}
}

func TestVideoRepository_SetFailed_SkipsTerminal(t *testing.T) {
	repo, mock, closeDB := newStub(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE videos
      SET status = ?, failure_message = ?
      WHERE id = ? AND status NOT IN (?, ?)
    `)).
		WithArgs(model.VideoStatusFailed, "probe failed", testVideoID, model.VideoStatusCompleted, model.VideoStatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetFailed(context.Background(), testVideoID, "probe failed"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows on terminal record, got %v", err)
	}
}
