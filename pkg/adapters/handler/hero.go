package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
)

type HeroHandler struct {
	service ports.HeroService
	seeder  ports.SeederService
	images  ports.ImageStore
	log     *zap.Logger
}

func NewHeroHandler(service ports.HeroService, seeder ports.SeederService, images ports.ImageStore, log *zap.Logger) *HeroHandler {
	return &HeroHandler{service: service, seeder: seeder, images: images, log: log}
}

func (h *HeroHandler) List(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.service.ListHeroes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	if heroes == nil {
		heroes = []domain.Hero{}
	}
	writeJSON(w, http.StatusOK, heroes)
}

// Create takes multipart fields name, role, hero_image, role_icon.
func (h *HeroHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(2 * maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "Images must be 2MB or smaller")
		return
	}

	heroImagePath, err1 := h.saveUpload(r, "hero_image")
	roleIconPath, err2 := h.saveUpload(r, "role_icon")
	if err1 != nil || err2 != nil || heroImagePath == "" || roleIconPath == "" {
		writeMsg(w, http.StatusBadRequest, "Both hero image and role icon are required")
		return
	}

	hero, err := h.service.CreateHero(r.Context(), r.FormValue("name"), r.FormValue("role"), heroImagePath, roleIconPath)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

func (h *HeroHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid hero ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 2*maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(2 * maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "Images must be 2MB or smaller")
		return
	}

	upd := domain.HeroUpdate{
		Name: r.FormValue("name"),
		Role: r.FormValue("role"),
	}
	// Replacement images are optional on update.
	if path, err := h.saveUpload(r, "hero_image"); err == nil && path != "" {
		upd.HeroImagePath = path
	}
	if path, err := h.saveUpload(r, "role_icon"); err == nil && path != "" {
		upd.RoleIconPath = path
	}

	hero, err := h.service.UpdateHero(r.Context(), id, upd)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

func (h *HeroHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid hero ID")
		return
	}

	if err := h.service.DeleteHero(r.Context(), id); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Hero deleted")
}

func (h *HeroHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := h.seeder.Start(); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Seeding started in background. Check logs or refresh hero list in a minute.")
}

func (h *HeroHandler) SeedStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.seeder.Status())
}

// saveUpload stores an optional multipart image and returns its path, or ""
// when the field is absent.
func (h *HeroHandler) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	if !allowedImage(header.Filename) {
		return "", &domain.ValidationError{Msg: "Images only (jpeg, jpg, png)"}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	return h.images.SaveHeroImage(r.Context(), file, uuid.NewString()+ext)
}
