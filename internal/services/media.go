package services

import (
	"context"
	"io"

	"github.com/msb-blog/apiserver/internal/storage"
)

// PostChecker verifies that a post exists before media is attached.
type PostChecker interface {
	Get(ctx context.Context, id string) (map[string]any, error)
}

// MediaService stores file attachments for posts in object storage,
// keyed under posts/{id}/{filename}.
type MediaService struct {
	posts   PostChecker
	objects storage.ObjectStorage
}

func NewMediaService(posts PostChecker, objects storage.ObjectStorage) *MediaService {
	return &MediaService{
		posts:   posts,
		objects: objects,
	}
}

// Upload attaches a file to an existing post. A missing post surfaces
// as the repository's not-found error.
func (s *MediaService) Upload(ctx context.Context, postID, filename, contentType string, r io.Reader, size int64) error {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return err
	}
	return s.objects.Put(ctx, mediaKey(postID, filename), r, size, contentType)
}

// Open streams a stored attachment.
func (s *MediaService) Open(ctx context.Context, postID, filename string) (io.ReadCloser, error) {
	return s.objects.Get(ctx, mediaKey(postID, filename))
}

// Remove deletes a stored attachment.
func (s *MediaService) Remove(ctx context.Context, postID, filename string) error {
	return s.objects.Delete(ctx, mediaKey(postID, filename))
}

func mediaKey(postID, filename string) string {
	return "posts/" + postID + "/" + filename
}
