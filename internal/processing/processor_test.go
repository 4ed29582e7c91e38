package processing

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vidmill/videos-ms-go/internal/broadcast"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/mock"
	"github.com/vidmill/videos-ms-go/internal/model"
)

var testID = db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))

func pendingVideo() *model.Video {
	return &model.Video{
		ID:       testID,
		Title:    "Holiday cut",
		AssetKey: "videos/1-1.mp4",
		Status:   model.VideoStatusPending,
	}
}

func fastConfig() Config {
	return Config{
		TickInterval:      time.Millisecond,
		Step:              10,
		AnalysisThreshold: 70,
		MaxRuntime:        5 * time.Second,
	}
}

func boolPtr(b bool) *bool { return &b }

func newTestProcessor(repo *mock.VideoRepository, bus *mock.Broadcaster, prober *mock.Prober, classifier *mock.Classifier, ca *mock.Cache, cfg Config) *Processor {
	return New(repo, bus, prober, classifier, ca, cfg)
}

func TestRun_CompletesSafe(t *testing.T) {
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	bus := &mock.Broadcaster{}
	prober := &mock.Prober{DurationOut: 120.5}
	classifier := &mock.Classifier{VerdictOut: model.Sensitivity{IsSafe: boolPtr(true)}}
	ca := &mock.Cache{}
	p := newTestProcessor(repo, bus, prober, classifier, ca, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if !repo.SetProcessingCalled {
		t.Error("expected the run to claim the record")
	}
	if repo.DurationSeen != 120.5 {
		t.Errorf("persisted duration = %v; want 120.5", repo.DurationSeen)
	}

	progress := repo.Progress()
	want := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress sequence = %v; want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress sequence = %v; want %v", progress, want)
		}
	}

	if !repo.SetCompletedCalled {
		t.Fatal("expected the run to complete the record")
	}
	if repo.VerdictSeen.IsSafe == nil || !*repo.VerdictSeen.IsSafe {
		t.Errorf("persisted verdict = %+v; want safe", repo.VerdictSeen)
	}
	if !ca.DelDetailsCalled || !ca.DelEtagCalled {
		t.Error("expected the details cache to be invalidated on completion")
	}

	events := bus.OnTopic(broadcast.VideoTopic(testID.String()))
	if len(events) != 12 {
		t.Fatalf("got %d events on the video topic; want 12", len(events))
	}
	if events[0].Message != "Queued for processing..." {
		t.Errorf("first event message = %q", events[0].Message)
	}
	last := events[len(events)-1]
	if last.Status != model.VideoStatusCompleted || last.Progress != 100 {
		t.Errorf("final event = %+v; want completed at 100", last)
	}
	if last.Message != "Processing complete. Video is Safe." {
		t.Errorf("final event message = %q", last.Message)
	}
	if last.Sensitivity == nil || last.Sensitivity.IsSafe == nil || !*last.Sensitivity.IsSafe {
		t.Errorf("final event sensitivity = %+v; want safe", last.Sensitivity)
	}

	// every event is mirrored on the global topic
	global := bus.OnTopic(broadcast.TopicProcessingUpdates)
	if len(global) != len(events) {
		t.Errorf("global topic got %d events; want %d", len(global), len(events))
	}
}

func TestRun_PhaseMessagesSwitchAtThreshold(t *testing.T) {
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	bus := &mock.Broadcaster{}
	p := newTestProcessor(repo, bus, &mock.Prober{DurationOut: 1}, &mock.Classifier{VerdictOut: model.Sensitivity{IsSafe: boolPtr(true)}}, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	for _, ev := range bus.OnTopic(broadcast.VideoTopic(testID.String())) {
		if ev.Status != model.VideoStatusProcessing || ev.Progress == 0 {
			continue
		}
		want := "Transcoding video..."
		if ev.Progress > 70 {
			want = "Analyzing content sensitivity..."
		}
		if ev.Message != want {
			t.Errorf("message at %d%% = %q; want %q", ev.Progress, ev.Message, want)
		}
	}
}

func TestRun_FlaggedVerdict(t *testing.T) {
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	bus := &mock.Broadcaster{}
	classifier := &mock.Classifier{VerdictOut: model.Sensitivity{
		IsSafe: boolPtr(false),
		Flags:  []string{"simulated_nudity", "simulated_violence"},
	}}
	p := newTestProcessor(repo, bus, &mock.Prober{DurationOut: 1}, classifier, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if repo.VerdictSeen.IsSafe == nil || *repo.VerdictSeen.IsSafe {
		t.Errorf("persisted verdict = %+v; want flagged", repo.VerdictSeen)
	}
	events := bus.OnTopic(broadcast.VideoTopic(testID.String()))
	last := events[len(events)-1]
	if last.Message != "Processing complete. Content flagged." {
		t.Errorf("final event message = %q", last.Message)
	}
}

func TestRun_RecordAlreadyGone(t *testing.T) {
	repo := &mock.VideoRepository{GetErr: sql.ErrNoRows}
	bus := &mock.Broadcaster{}
	p := newTestProcessor(repo, bus, &mock.Prober{}, &mock.Classifier{}, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if repo.SetProcessingCalled || repo.SetFailedCalled {
		t.Error("a deleted record must not be written to")
	}
	if len(bus.Published()) != 0 {
		t.Error("no events expected for a deleted record")
	}
}

func TestRun_TerminalRecordIsSilent(t *testing.T) {
	v := pendingVideo()
	v.Status = model.VideoStatusCompleted
	repo := &mock.VideoRepository{VideoRecord: v}
	bus := &mock.Broadcaster{}
	p := newTestProcessor(repo, bus, &mock.Prober{}, &mock.Classifier{}, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if repo.SetProcessingCalled {
		t.Error("a terminal record must not re-enter processing")
	}
	if len(bus.Published()) != 0 {
		t.Error("no events expected for a terminal record")
	}
}

func TestRun_GuardedUpdateLosingStopsSilently(t *testing.T) {
	// the record vanished between GetByID and SetProgress
	repo := &mock.VideoRepository{VideoRecord: pendingVideo(), SetProgressErr: sql.ErrNoRows}
	bus := &mock.Broadcaster{}
	p := newTestProcessor(repo, bus, &mock.Prober{DurationOut: 1}, &mock.Classifier{}, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if repo.SetFailedCalled || repo.SetCompletedCalled {
		t.Error("losing a guarded update must not produce a terminal write")
	}
}

func TestRun_ProberErrorFailsRun(t *testing.T) {
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	bus := &mock.Broadcaster{}
	prober := &mock.Prober{DurationErr: errors.New("ffprobe exploded")}
	p := newTestProcessor(repo, bus, prober, &mock.Classifier{}, &mock.Cache{}, fastConfig())

	err := p.Run(context.Background(), testID)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !repo.SetFailedCalled {
		t.Fatal("expected the record to be marked failed")
	}
	if !strings.Contains(repo.FailureReason, "metadata extraction") {
		t.Errorf("failure reason = %q; want it to name the extraction step", repo.FailureReason)
	}

	events := bus.OnTopic(broadcast.VideoTopic(testID.String()))
	last := events[len(events)-1]
	if last.Status != model.VideoStatusFailed || last.Message != "Processing failed." {
		t.Errorf("final event = %+v; want the failure event", last)
	}
}

func TestRun_ClassifierErrorFailsRun(t *testing.T) {
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	classifier := &mock.Classifier{ClassifyErr: errors.New("model unavailable")}
	p := newTestProcessor(repo, &mock.Broadcaster{}, &mock.Prober{DurationOut: 1}, classifier, &mock.Cache{}, fastConfig())

	if err := p.Run(context.Background(), testID); err == nil {
		t.Fatal("expected error, got nil")
	}
	if repo.SetCompletedCalled {
		t.Error("a failed classification must not complete the record")
	}
	if !repo.SetFailedCalled {
		t.Error("expected the record to be marked failed")
	}
}

func TestRun_SecondRunRejected(t *testing.T) {
	cfg := fastConfig()
	cfg.TickInterval = time.Hour // park the first run between ticks
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	p := newTestProcessor(repo, &mock.Broadcaster{}, &mock.Prober{DurationOut: 1}, &mock.Classifier{}, &mock.Cache{}, cfg)

	if err := p.LaunchProcessing(context.Background(), testID); err != nil {
		t.Fatalf("LaunchProcessing() returned unexpected error: %v", err)
	}
	// give the goroutine a moment to register
	deadline := time.Now().Add(time.Second)
	for {
		err := p.Run(context.Background(), testID)
		if errors.Is(err, ErrAlreadyRunning) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected ErrAlreadyRunning, got %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() returned unexpected error: %v", err)
	}
}

func TestCancel_StopsWithoutTerminalWrite(t *testing.T) {
	cfg := fastConfig()
	cfg.TickInterval = time.Hour
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	bus := &mock.Broadcaster{}
	p := newTestProcessor(repo, bus, &mock.Prober{DurationOut: 1}, &mock.Classifier{}, &mock.Cache{}, cfg)

	if err := p.LaunchProcessing(context.Background(), testID); err != nil {
		t.Fatalf("LaunchProcessing() returned unexpected error: %v", err)
	}
	// wait until the run has claimed the record, then cancel it
	deadline := time.Now().Add(time.Second)
	for len(bus.Published()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("run never claimed the record")
		}
		time.Sleep(time.Millisecond)
	}
	p.Cancel(testID)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() returned unexpected error: %v", err)
	}

	if repo.SetCompletedCalled || repo.SetFailedCalled {
		t.Error("a cancelled run must not write a terminal state")
	}
}

func TestRun_MaxRuntimeExceededFails(t *testing.T) {
	cfg := fastConfig()
	cfg.TickInterval = time.Hour // never tick; the deadline fires first
	cfg.MaxRuntime = 10 * time.Millisecond
	repo := &mock.VideoRepository{VideoRecord: pendingVideo()}
	p := newTestProcessor(repo, &mock.Broadcaster{}, &mock.Prober{DurationOut: 1}, &mock.Classifier{}, &mock.Cache{}, cfg)

	if err := p.Run(context.Background(), testID); err == nil {
		t.Fatal("expected error, got nil")
	}
	if !repo.SetFailedCalled {
		t.Fatal("expected the record to be marked failed")
	}
	if !strings.Contains(repo.FailureReason, "max runtime") {
		t.Errorf("failure reason = %q; want it to name the runtime bound", repo.FailureReason)
	}
}
