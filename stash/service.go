package stash

import "context"

// Service exposes the package-level search operations behind a value that can
// be passed to collaborators (and replaced by fakes in tests).
type Service struct{}

// NewService returns the production searcher backed by the configured server.
func NewService() *Service {
	return &Service{}
}

func (Service) SceneByID(ctx context.Context, id string) (*Scene, error) {
	return SceneByID(ctx, id)
}

func (Service) ScenesByTags(ctx context.Context, tagIDs []string, limit int) ([]*Scene, error) {
	return ScenesByTags(ctx, tagIDs, limit)
}

func (Service) ScenesByQuery(ctx context.Context, text string, limit int) ([]*Scene, error) {
	return ScenesByQuery(ctx, text, limit)
}

func (Service) ScenesByPerformer(ctx context.Context, performerID string, broad bool, limit int) ([]*Scene, error) {
	return ScenesByPerformer(ctx, performerID, broad, limit)
}

func (Service) RandomScenes(ctx context.Context, limit int) ([]*Scene, error) {
	return RandomScenes(ctx, limit)
}

func (Service) MarkersByTags(ctx context.Context, tagIDs []string, limit int) ([]*Marker, error) {
	return MarkersByTags(ctx, tagIDs, limit)
}

func (Service) MarkersByQuery(ctx context.Context, text string, limit int) ([]*Marker, error) {
	return MarkersByQuery(ctx, text, limit)
}
