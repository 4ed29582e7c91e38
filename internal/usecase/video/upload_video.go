package video

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Uploader ingests an uploaded file and launches processing.
type Uploader interface {
	UploadVideo(ctx context.Context, in UploadVideoInput) (*model.Video, error)
}

type uploaderSrv struct {
	repo     Repository
	strg     Storage
	launcher Launcher
	genUUID  func() db.UUID
	now      func() time.Time
}

// NewUploader constructs an Uploader implementation.
func NewUploader(repo Repository, strg Storage, launcher Launcher) Uploader {
	return &uploaderSrv{
		repo:     repo,
		strg:     strg,
		launcher: launcher,
		genUUID:  db.NewUUID,
		now:      time.Now,
	}
}

// UploadVideoInput carries the caller identity, the file stream and the
// descriptive fields of a single upload.
type UploadVideoInput struct {
	Caller      model.Caller
	Title       string
	Description string
	Category    string
	Visibility  string
	Filename    string
	ContentType string
	SizeBytes   int64
	File        io.Reader
}

// UploadVideo validates the upload, writes exactly one asset and one record,
// and hands the video to the state machine. If anything fails after the asset
// write but before the record commit, the asset is removed again.
func (s *uploaderSrv) UploadVideo(ctx context.Context, in UploadVideoInput) (*model.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.File == nil {
		return nil, fmt.Errorf("%w: video file is required", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !IsExtensionAllowed(ext) || !IsMimeTypeAllowed(in.ContentType) {
		return nil, fmt.Errorf("%w (%s). Allowed: %s", ErrUnsupportedFormat, ext, AllowedExtensionList())
	}
	if in.SizeBytes > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, in.SizeBytes, MaxFileSize)
	}

	now := s.now().UTC()
	assetKey := fmt.Sprintf("videos/%d-%d%s", now.UnixNano(), rand.IntN(1_000_000_000), ext)

	if err := s.strg.SaveFile(ctx, assetKey, in.File, in.SizeBytes, map[string]string{
		"Content-Type": in.ContentType,
	}); err != nil {
		return nil, fmt.Errorf("save asset %q failed: %w", assetKey, err)
	}

	// The asset is in. From here on every failure must remove it again so
	// no orphaned blob survives a half-done ingestion.
	var finalErr error
	defer func() {
		if finalErr != nil {
			if err := s.strg.RemoveFile(context.WithoutCancel(ctx), assetKey); err != nil {
				log.Printf("cleanup failed for asset %q: %v", assetKey, err)
			}
		}
	}()

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	visibility := model.Visibility(in.Visibility)
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	v := &model.Video{
		ID:          s.genUUID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Visibility:  visibility,
		OwnerID:     in.Caller.ID,
		AssetKey:    assetKey,
		SizeBytes:   in.SizeBytes,
		Status:      model.VideoStatusPending,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		finalErr = fmt.Errorf("create record for asset %q failed: %w", assetKey, err)
		return nil, finalErr
	}

	// Fire and forget: the HTTP response returns with the pending record
	// while the state machine picks the video up in the background.
	if err := s.launcher.LaunchProcessing(ctx, v.ID); err != nil {
		log.Printf("failed to launch processing for video #%s: %v", v.ID, err)
	}

	return v, nil
}
