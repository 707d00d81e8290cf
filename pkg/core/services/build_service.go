package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
)

// BuildService is the only writer of build records. It owns the quota and
// the append-to-end order assignment; the repository owns the uniqueness of
// (user, hero, display_order).
type BuildService struct {
	builds ports.BuildRepository
	heroes ports.HeroRepository
	images ports.ImageStore
	log    *zap.Logger
}

func NewBuildService(builds ports.BuildRepository, heroes ports.HeroRepository, images ports.ImageStore, log *zap.Logger) *BuildService {
	return &BuildService{builds: builds, heroes: heroes, images: images, log: log}
}

func (s *BuildService) ListBuilds(ctx context.Context, heroID int64) ([]domain.Build, error) {
	return s.builds.ListByHero(ctx, heroID)
}

func (s *BuildService) CreateBuild(ctx context.Context, userID, heroID int64, title string, image io.Reader) (*domain.Build, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &domain.ValidationError{Msg: "Title is required"}
	}
	if utf8.RuneCountInString(title) > domain.MaxBuildTitleLen {
		return nil, &domain.ValidationError{Msg: "Title must be 50 characters or fewer"}
	}

	hero, err := s.heroes.GetByID(ctx, heroID)
	if err != nil {
		return nil, err
	}
	if hero == nil {
		return nil, &domain.NotFoundError{Resource: "Hero"}
	}

	count, err := s.builds.CountByOwnerHero(ctx, userID, heroID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxBuildsPerHero {
		return nil, domain.ErrQuotaExceeded
	}

	// Image first: a failed image write must not leave a build record behind.
	imagePath, err := s.images.StoreBuildImage(ctx, image)
	if err != nil {
		return nil, err
	}

	build := &domain.Build{
		UserID:    userID,
		HeroID:    heroID,
		Title:     title,
		ImagePath: imagePath,
		CreatedAt: time.Now(),
	}

	// Two concurrent creates can compute the same next order; the unique
	// index rejects the loser, so recompute once before giving up.
	for attempt := 0; ; attempt++ {
		max, merr := s.builds.MaxOrder(ctx, userID, heroID)
		if merr != nil {
			err = merr
			break
		}
		build.DisplayOrder = max + 1

		err = s.builds.Insert(ctx, build)
		if err == nil {
			return build, nil
		}
		if !errors.Is(err, domain.ErrOrderConflict) || attempt >= 1 {
			break
		}
	}

	// Insert failed for good: roll the image back so it doesn't orphan.
	if derr := s.images.Delete(ctx, imagePath); derr != nil {
		s.log.Warn("failed to remove image after insert failure",
			zap.String("path", imagePath), zap.Error(derr))
	}
	return nil, err
}

func (s *BuildService) DeleteBuild(ctx context.Context, userID, buildID int64) error {
	// Ownership is part of the lookup; a foreign build and a missing build
	// answer identically.
	build, err := s.builds.FindOwned(ctx, buildID, userID)
	if err != nil {
		return err
	}
	if build == nil {
		return &domain.NotFoundError{Resource: "Build"}
	}

	// Best effort: a stuck file must not make the record undeletable.
	if err := s.images.Delete(ctx, build.ImagePath); err != nil {
		s.log.Warn("build image delete failed",
			zap.String("path", build.ImagePath), zap.Error(err))
	}

	// Remaining orders keep their gap; the next reorder from the client
	// renumbers the sequence.
	return s.builds.Delete(ctx, build.ID)
}

func (s *BuildService) ReorderBuilds(ctx context.Context, heroID int64, buildIDs []int64) error {
	return s.builds.Reorder(ctx, heroID, buildIDs)
}

var _ ports.BuildService = (*BuildService)(nil)
