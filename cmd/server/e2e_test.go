package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waritk/go-hero-catalog/pkg/adapters/handler"
	"github.com/waritk/go-hero-catalog/pkg/adapters/repository/sqlite"
	"github.com/waritk/go-hero-catalog/pkg/adapters/storage"
	"github.com/waritk/go-hero-catalog/pkg/config"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/core/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	server *httptest.Server
	repo   *sqlite.SQLiteRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:  "e2e-secret",
		UploadsDir: t.TempDir(),
		CORSOrigin: "*",
	}

	name := strings.ReplaceAll(t.Name(), "/", "_")
	repo, err := sqlite.NewSQLiteRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	images, err := storage.NewLocalStore(cfg.UploadsDir)
	require.NoError(t, err)

	log := zap.NewNop()
	heroService := services.NewHeroService(repo.Heroes(), images, log)
	buildService := services.NewBuildService(repo, repo.Heroes(), images, log)
	authService := services.NewAuthService(repo.Users(), cfg.JWTSecret)
	seeder := services.NewSeederService(repo.Heroes(), images, nil, "http://127.0.0.1:0", log)

	router := handler.NewRouter(cfg, log, heroService, buildService, authService, seeder, images)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, repo: repo}
}

func (a *testApp) register(t *testing.T, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp := a.do(t, http.MethodPost, "/api/v1/auth/register", "", "application/json", bytes.NewReader(body))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return tokenFrom(t, resp.Body)
}

// registerAdmin seeds an admin account directly; there is no HTTP route
// that grants the admin role.
func (a *testApp) registerAdmin(t *testing.T, email, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, a.repo.Users().Create(t.Context(), &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
	}))

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp := a.do(t, http.MethodPost, "/api/v1/auth/login", "", "application/json", bytes.NewReader(body))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return tokenFrom(t, resp.Body)
}

func (a *testApp) do(t *testing.T, method, path, token, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func tokenFrom(t *testing.T, body io.Reader) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, val := range fields {
		require.NoError(t, mw.WriteField(key, val))
	}
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testApp) createHero(t *testing.T, adminToken, name, role string) int64 {
	t.Helper()
	img := pngUpload(t)
	body, contentType := multipartBody(t,
		map[string]string{"name": name, "role": role},
		map[string][]byte{"hero_image": img, "role_icon": img},
	)
	resp := a.do(t, http.MethodPost, "/api/v1/heroes", adminToken, contentType, body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var hero domain.Hero
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hero))
	return hero.ID
}

func (a *testApp) createBuild(t *testing.T, token string, heroID int64, title string) (*http.Response, *domain.Build) {
	t.Helper()
	body, contentType := multipartBody(t,
		map[string]string{"title": title},
		map[string][]byte{"build_image": pngUpload(t)},
	)
	resp := a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), token, contentType, body)
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()
	var build domain.Build
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&build))
	return resp, &build
}

func (a *testApp) listBuilds(t *testing.T, heroID int64) []domain.Build {
	t.Helper()
	resp := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), "", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var builds []domain.Build
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&builds))
	return builds
}

func msgFrom(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var out struct {
		Msg string `json:"msg"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Msg
}

func TestBuildLifecycle(t *testing.T) {
	app := newTestApp(t)
	admin := app.registerAdmin(t, "admin@example.com", "adminpass")
	user := app.register(t, "user@example.com", "userpass")
	heroID := app.createHero(t, admin, "Layla", "Marksman")

	// Three builds append at orders 1, 2, 3.
	var ids []int64
	for i, title := range []string{"Burst", "Sustain", "Hybrid"} {
		resp, build := app.createBuild(t, user, heroID, title)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, i+1, build.DisplayOrder)
		assert.NotEmpty(t, build.ImagePath)
		ids = append(ids, build.ID)
	}

	// The fourth hits the per-hero quota.
	resp, _ := app.createBuild(t, user, heroID, "One too many")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Maximum 3 builds allowed per hero", msgFrom(t, resp))

	// Public listing carries the owner email in display order.
	builds := app.listBuilds(t, heroID)
	require.Len(t, builds, 3)
	assert.Equal(t, []string{"Burst", "Sustain", "Hybrid"}, titlesOf(builds))
	assert.Equal(t, "user@example.com", builds[0].OwnerEmail)

	// Reorder to [Hybrid, Burst, Sustain].
	body, _ := json.Marshal(map[string][]int64{"buildIds": {ids[2], ids[0], ids[1]}})
	reorderResp := app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/heroes/%d/builds/reorder", heroID),
		user, "application/json", bytes.NewReader(body))
	require.Equal(t, http.StatusOK, reorderResp.StatusCode)
	assert.Equal(t, "Builds reordered", msgFrom(t, reorderResp))
	assert.Equal(t, []string{"Hybrid", "Burst", "Sustain"}, titlesOf(app.listBuilds(t, heroID)))

	// Deleting the middle build leaves the others where they were.
	deleteResp := app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/builds/%d", ids[0]), user, "", nil)
	require.Equal(t, http.StatusOK, deleteResp.StatusCode)
	assert.Equal(t, "Build deleted", msgFrom(t, deleteResp))

	remaining := app.listBuilds(t, heroID)
	require.Len(t, remaining, 2)
	assert.Equal(t, []string{"Hybrid", "Sustain"}, titlesOf(remaining))
	assert.Equal(t, 1, remaining[0].DisplayOrder)
	assert.Equal(t, 3, remaining[1].DisplayOrder)
}

func TestBuildOwnershipAndAuth(t *testing.T) {
	app := newTestApp(t)
	admin := app.registerAdmin(t, "admin@example.com", "adminpass")
	owner := app.register(t, "owner@example.com", "ownerpass")
	rival := app.register(t, "rival@example.com", "rivalpass")
	heroID := app.createHero(t, admin, "Miya", "Marksman")

	_, build := app.createBuild(t, owner, heroID, "Standard")
	require.NotNil(t, build)

	// Unauthenticated create is rejected before any work happens.
	body, contentType := multipartBody(t,
		map[string]string{"title": "Anon"},
		map[string][]byte{"build_image": pngUpload(t)},
	)
	resp := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), "", contentType, body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// A rival deleting someone else's build sees the same 404 as a
	// missing id.
	resp = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/builds/%d", build.ID), rival, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Build not found", msgFrom(t, resp))

	resp = app.do(t, http.MethodDelete, "/api/v1/builds/999999", rival, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The build is still there.
	assert.Len(t, app.listBuilds(t, heroID), 1)
}

func TestBuildCreateValidation(t *testing.T) {
	app := newTestApp(t)
	admin := app.registerAdmin(t, "admin@example.com", "adminpass")
	user := app.register(t, "user@example.com", "userpass")
	heroID := app.createHero(t, admin, "Eudora", "Mage")

	// Missing image part.
	body, contentType := multipartBody(t, map[string]string{"title": "No image"}, nil)
	resp := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), user, contentType, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Build image is required", msgFrom(t, resp))

	// Disallowed extension.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Wrong ext"))
	part, err := mw.CreateFormFile("build_image", "build.gif")
	require.NoError(t, err)
	_, err = part.Write(pngUpload(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), user, mw.FormDataContentType(), &buf)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Images only (jpeg, jpg, png)", msgFrom(t, resp))

	// Unknown hero.
	resp, _ = app.createBuild(t, user, 424242, "Ghost hero")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Hero not found", msgFrom(t, resp))

	// Blank title.
	resp, _ = app.createBuild(t, user, heroID, "   ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Title is required", msgFrom(t, resp))
}

func TestHeroAdminSurface(t *testing.T) {
	app := newTestApp(t)
	admin := app.registerAdmin(t, "admin@example.com", "adminpass")
	user := app.register(t, "user@example.com", "userpass")

	// Plain users cannot create heroes.
	img := pngUpload(t)
	body, contentType := multipartBody(t,
		map[string]string{"name": "Nana", "role": "Mage"},
		map[string][]byte{"hero_image": img, "role_icon": img},
	)
	resp := app.do(t, http.MethodPost, "/api/v1/heroes", user, contentType, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	heroID := app.createHero(t, admin, "Nana", "Mage")

	// Search narrows the listing.
	app.createHero(t, admin, "Tigreal", "Tank")
	resp = app.do(t, http.MethodGet, "/api/v1/heroes?search=nan", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var heroes []domain.Hero
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&heroes))
	resp.Body.Close()
	require.Len(t, heroes, 1)
	assert.Equal(t, "Nana", heroes[0].Name)

	// Deleting a hero cascades to its builds.
	_, build := app.createBuild(t, user, heroID, "Roam")
	require.NotNil(t, build)
	resp = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/heroes/%d", heroID), admin, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hero deleted", msgFrom(t, resp))

	resp = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/heroes/%d/builds", heroID), "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var builds []domain.Build
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&builds))
	resp.Body.Close()
	assert.Empty(t, builds)
}

func TestHealthzAndMe(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodGet, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	token := app.register(t, "me@example.com", "mypassword")
	resp = app.do(t, http.MethodGet, "/api/v1/auth/me", token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	resp.Body.Close()
	assert.Equal(t, "me@example.com", me.Email)
	assert.Empty(t, me.PasswordHash)
}

func titlesOf(builds []domain.Build) []string {
	titles := make([]string, len(builds))
	for i, b := range builds {
		titles[i] = b.Title
	}
	return titles
}
