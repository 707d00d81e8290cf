package services

import (
	"context"
	"fmt"
	"time"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
)

type HeroService struct {
	heroes ports.HeroRepository
	images ports.ImageStore
	log    *zap.Logger
}

func NewHeroService(heroes ports.HeroRepository, images ports.ImageStore, log *zap.Logger) *HeroService {
	return &HeroService{heroes: heroes, images: images, log: log}
}

func (s *HeroService) CreateHero(ctx context.Context, name, role, heroImagePath, roleIconPath string) (*domain.Hero, error) {
	if name == "" || role == "" {
		return nil, &domain.ValidationError{Msg: "Name and role are required"}
	}

	existing, err := s.heroes.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("Hero '%s' already exists", name)}
	}

	hero := &domain.Hero{
		Name:          name,
		Role:          role,
		HeroImagePath: heroImagePath,
		RoleIconPath:  roleIconPath,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.heroes.Create(ctx, hero); err != nil {
		return nil, err
	}
	return hero, nil
}

func (s *HeroService) GetHero(ctx context.Context, id int64) (*domain.Hero, error) {
	hero, err := s.heroes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hero == nil {
		return nil, &domain.NotFoundError{Resource: "Hero"}
	}
	return hero, nil
}

func (s *HeroService) ListHeroes(ctx context.Context, search string) ([]domain.Hero, error) {
	return s.heroes.List(ctx, search)
}

func (s *HeroService) UpdateHero(ctx context.Context, id int64, upd domain.HeroUpdate) (*domain.Hero, error) {
	hero, err := s.heroes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hero == nil {
		return nil, &domain.NotFoundError{Resource: "Hero"}
	}

	if upd.Name != "" {
		hero.Name = upd.Name
	}
	if upd.Role != "" {
		hero.Role = upd.Role
	}
	if upd.HeroImagePath != "" && upd.HeroImagePath != hero.HeroImagePath {
		s.removeImage(ctx, hero.HeroImagePath)
		hero.HeroImagePath = upd.HeroImagePath
	}
	if upd.RoleIconPath != "" && upd.RoleIconPath != hero.RoleIconPath {
		s.removeImage(ctx, hero.RoleIconPath)
		hero.RoleIconPath = upd.RoleIconPath
	}
	hero.UpdatedAt = time.Now()

	if err := s.heroes.Update(ctx, hero); err != nil {
		return nil, err
	}
	return hero, nil
}

func (s *HeroService) DeleteHero(ctx context.Context, id int64) error {
	hero, err := s.heroes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if hero == nil {
		return &domain.NotFoundError{Resource: "Hero"}
	}

	s.removeImage(ctx, hero.HeroImagePath)
	s.removeImage(ctx, hero.RoleIconPath)

	return s.heroes.Delete(ctx, hero.ID)
}

func (s *HeroService) removeImage(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.images.Delete(ctx, path); err != nil {
		s.log.Warn("hero image delete failed", zap.String("path", path), zap.Error(err))
	}
}

var _ ports.HeroService = (*HeroService)(nil)
