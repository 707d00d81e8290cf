package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
)

// heroPace spaces upstream detail requests so the crawl stays polite.
const heroPace = 100 * time.Millisecond

// SeederService crawls the upstream hero API and upserts the catalog.
// Status is instance state, guarded by mu, so independent instances (and
// tests) never share progress.
type SeederService struct {
	heroes  ports.HeroRepository
	images  ports.ImageStore
	client  *http.Client
	apiBase string
	log     *zap.Logger

	mu     sync.Mutex
	status domain.SeedStatus
}

func NewSeederService(heroes ports.HeroRepository, images ports.ImageStore, client *http.Client, apiBase string, log *zap.Logger) *SeederService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SeederService{
		heroes:  heroes,
		images:  images,
		client:  client,
		apiBase: strings.TrimRight(apiBase, "/"),
		log:     log,
		status:  domain.SeedStatus{State: domain.SeedIdle},
	}
}

// Upstream response shapes, trimmed to the fields the seeder reads.

type heroListResponse struct {
	Data struct {
		Records []heroListRecord `json:"records"`
	} `json:"data"`
}

type heroListRecord struct {
	Data struct {
		HeroID int64 `json:"hero_id"`
		Hero   struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		} `json:"hero"`
	} `json:"data"`
}

type heroDetailResponse struct {
	Data struct {
		Records []struct {
			Data struct {
				Hero struct {
					Data struct {
						SortLabel []string `json:"sortlabel"`
						SortIcon  string   `json:"sorticon1"`
						Painting  string   `json:"painting"`
						Head      string   `json:"head"`
					} `json:"data"`
				} `json:"hero"`
			} `json:"data"`
		} `json:"records"`
	} `json:"data"`
}

// Start launches a crawl in the background. A second call while one is
// running fails with domain.ErrSeedInProgress.
func (s *SeederService) Start() error {
	s.mu.Lock()
	if s.status.State == domain.SeedRunning {
		s.mu.Unlock()
		return domain.ErrSeedInProgress
	}
	s.status = domain.SeedStatus{State: domain.SeedRunning, Message: "Fetching hero list..."}
	s.mu.Unlock()

	// Detached from any request: an aborted admin request must not kill
	// a half-finished crawl.
	go func() {
		count, err := s.run(context.Background())
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.log.Error("seeding failed", zap.Error(err))
			s.status.State = domain.SeedError
			s.status.Message = err.Error()
			return
		}
		s.status.State = domain.SeedCompleted
		s.status.Current = s.status.Total
		s.status.Message = "Seeding complete"
		s.log.Info("seeding finished", zap.Int("heroes", count))
	}()

	return nil
}

func (s *SeederService) Status() domain.SeedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SeederService) run(ctx context.Context) (int, error) {
	var list heroListResponse
	if err := s.getJSON(ctx, s.apiBase+"/hero-list/", &list); err != nil {
		return 0, err
	}

	records := list.Data.Records
	s.setProgress(func(st *domain.SeedStatus) { st.Total = len(records) })
	if len(records) == 0 {
		return 0, nil
	}

	roleIconCache := map[string]string{}
	processed := 0

	for _, record := range records {
		heroID := record.Data.HeroID
		name := record.Data.Hero.Data.Name
		s.setProgress(func(st *domain.SeedStatus) { st.Message = fmt.Sprintf("Processing %s...", name) })

		if err := s.seedOne(ctx, heroID, name, roleIconCache); err != nil {
			s.log.Error("error processing hero", zap.Int64("hero_id", heroID), zap.Error(err))
		} else {
			processed++
		}
		s.setProgress(func(st *domain.SeedStatus) { st.Current++ })

		select {
		case <-time.After(heroPace):
		case <-ctx.Done():
			return processed, ctx.Err()
		}
	}

	return processed, nil
}

func (s *SeederService) seedOne(ctx context.Context, heroID int64, name string, roleIconCache map[string]string) error {
	var detail heroDetailResponse
	if err := s.getJSON(ctx, fmt.Sprintf("%s/hero-detail/%d/", s.apiBase, heroID), &detail); err != nil {
		return err
	}
	if len(detail.Data.Records) == 0 {
		return fmt.Errorf("no detail records for hero %d", heroID)
	}
	d := detail.Data.Records[0].Data.Hero.Data

	roleName := "Unknown"
	if len(d.SortLabel) > 0 && d.SortLabel[0] != "" {
		roleName = d.SortLabel[0]
	}

	// Role icons repeat across heroes; download each one once per crawl.
	roleIconPath := roleIconCache[roleName]
	if roleIconPath == "" && d.SortIcon != "" {
		p, err := s.downloadImage(ctx, d.SortIcon, "role_"+strings.ToLower(roleName))
		if err != nil {
			return err
		}
		if p != "" {
			roleIconCache[roleName] = p
		}
		roleIconPath = p
	}

	heroImageURL := d.Painting
	if heroImageURL == "" {
		heroImageURL = d.Head
	}
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	heroImagePath, err := s.downloadImage(ctx, heroImageURL, fmt.Sprintf("hero_%d_%s", heroID, slug))
	if err != nil {
		return err
	}

	if heroImagePath == "" || roleIconPath == "" {
		return fmt.Errorf("missing artwork for hero %d", heroID)
	}

	now := time.Now()
	return s.heroes.Upsert(ctx, &domain.Hero{
		ID:            heroID,
		Name:          name,
		Role:          roleName,
		HeroImagePath: heroImagePath,
		RoleIconPath:  roleIconPath,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *SeederService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned %d for %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *SeederService) setProgress(update func(*domain.SeedStatus)) {
	s.mu.Lock()
	update(&s.status)
	s.mu.Unlock()
}

// downloadImage fetches the url and stores it under the hero images dir,
// returning the stored relative path. A missing url yields "".
func (s *SeederService) downloadImage(ctx context.Context, url, filename string) (string, error) {
	if url == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned %d for %s", resp.StatusCode, url)
	}

	ext := path.Ext(url)
	if i := strings.Index(ext, "?"); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		ext = ".png"
	}

	return s.images.SaveHeroImage(ctx, resp.Body, filename+ext)
}

var _ ports.SeederService = (*SeederService)(nil)
