package storage

import (
	"context"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vidmill/videos-ms-go/internal/usecase/video"
)

// MinioStorage is the primary asset store adapter, scoped to one bucket.
type MinioStorage struct {
	client     minioClient
	bucketName string
}

// compile-time check: *MinioStorage must satisfy video.Storage
var _ video.Storage = (*MinioStorage)(nil)

// NewMinioStorage connects to MinIO and makes sure the bucket exists.
func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*MinioStorage, error) {
	log.Println("initialising minio client...")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, mapMinioErr(err)
	}

	ok, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, mapMinioErr(err)
	}
	if !ok {
		log.Printf("bucket %q does not exist, creating it...", bucket)
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, mapMinioErr(err)
		}
	}

	return &MinioStorage{client: client, bucketName: bucket}, nil
}

func (s *MinioStorage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	log.Printf("saving file %q into bucket %q...", fileKey, s.bucketName)

	putOpts := minio.PutObjectOptions{}
	if ct := opts["Content-Type"]; ct != "" {
		putOpts.ContentType = ct
	}

	_, err := s.client.PutObject(ctx, s.bucketName, fileKey, reader, fileSize, putOpts)
	if err != nil {
		return mapMinioErr(err)
	}
	return nil
}

func (s *MinioStorage) StatFile(ctx context.Context, fileKey string) (video.FileInfo, error) {
	log.Printf("getting stats on file %q in bucket %q...", fileKey, s.bucketName)

	info, err := s.client.StatObject(ctx, s.bucketName, fileKey, minio.StatObjectOptions{})
	if err != nil {
		return video.FileInfo{}, mapMinioErr(err)
	}
	return video.FileInfo{
		SizeBytes:   info.Size,
		ContentType: info.ContentType,
	}, nil
}

// OpenRange streams bytes [start, end] of the object; end < 0 reads to EOF.
func (s *MinioStorage) OpenRange(ctx context.Context, fileKey string, start, end int64) (io.ReadCloser, error) {
	log.Printf("opening range %d-%d of file %q in bucket %q...", start, end, fileKey, s.bucketName)

	getOpts := minio.GetObjectOptions{}
	if start > 0 || end >= 0 {
		// minio treats SetRange(start, 0) as "start to end-of-object"
		rangeEnd := end
		if rangeEnd < 0 {
			rangeEnd = 0
		}
		if err := getOpts.SetRange(start, rangeEnd); err != nil {
			return nil, mapMinioErr(err)
		}
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, fileKey, getOpts)
	if err != nil {
		return nil, mapMinioErr(err)
	}
	return obj, nil
}

func (s *MinioStorage) RemoveFile(ctx context.Context, fileKey string) error {
	log.Printf("removing file %q from bucket %q...", fileKey, s.bucketName)

	err := s.client.RemoveObject(ctx, s.bucketName, fileKey, minio.RemoveObjectOptions{})
	return mapMinioErr(err)
}
