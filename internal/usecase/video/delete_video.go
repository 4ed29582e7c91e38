package video

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Deleter removes a video record and its asset.
type Deleter interface {
	DeleteVideo(ctx context.Context, in DeleteVideoInput) error
}

type deleterSrv struct {
	repo      Repository
	strg      Storage
	cache     Cache
	canceller Canceller
}

// NewDeleter constructs a Deleter implementation.
func NewDeleter(repo Repository, strg Storage, cache Cache, canceller Canceller) Deleter {
	return &deleterSrv{repo: repo, strg: strg, cache: cache, canceller: canceller}
}

type DeleteVideoInput struct {
	Caller model.Caller
	ID     db.UUID
}

// DeleteVideo applies the access filter, cancels any in-flight processing
// run, removes the asset and then the record. Of two concurrent deletes for
// the same id exactly one wins; the other gets ErrNotFound from the record
// delete.
func (s *deleterSrv) DeleteVideo(ctx context.Context, in DeleteVideoInput) error {
	v, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if !CanDelete(v, in.Caller) {
		return ErrForbidden
	}

	s.canceller.Cancel(v.ID)

	if err := s.strg.RemoveFile(ctx, v.AssetKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, v.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.cache.DeleteVideoDetails(ctx, v.ID); err != nil {
		log.Printf("failed deleting details cache for video #%s: %v", v.ID, err)
	}
	if err := s.cache.DeleteEtagVideoDetails(ctx, v.ID); err != nil {
		log.Printf("failed deleting etag cache for video #%s: %v", v.ID, err)
	}

	return nil
}
