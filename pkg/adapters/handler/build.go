package handler

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"go.uber.org/zap"
)

const maxUploadBytes = 2 << 20 // 2MB, matches the upload middleware cap

type BuildHandler struct {
	service ports.BuildService
	log     *zap.Logger
}

func NewBuildHandler(service ports.BuildService, log *zap.Logger) *BuildHandler {
	return &BuildHandler{service: service, log: log}
}

type reorderRequest struct {
	BuildIDs []int64 `json:"buildIds"`
}

// List returns every build under a hero, all owners, in display order.
func (h *BuildHandler) List(w http.ResponseWriter, r *http.Request) {
	heroID, err := pathID(r, "heroId")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid hero ID")
		return
	}

	builds, err := h.service.ListBuilds(r.Context(), heroID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	if builds == nil {
		builds = []domain.Build{}
	}
	writeJSON(w, http.StatusOK, builds)
}

// Create handles the multipart upload: title + build_image.
func (h *BuildHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	heroID, err := pathID(r, "heroId")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid hero ID")
		return
	}

	// Form overhead on top of the file cap.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "Image must be 2MB or smaller")
		return
	}

	file, header, err := r.FormFile("build_image")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Build image is required")
		return
	}
	defer file.Close()

	if !allowedImage(header.Filename) {
		writeMsg(w, http.StatusBadRequest, "Images only (jpeg, jpg, png)")
		return
	}

	build, err := h.service.CreateBuild(r.Context(), caller.UserID, heroID, r.FormValue("title"), file)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, build)
}

func (h *BuildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	buildID, err := pathID(r, "id")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid build ID")
		return
	}

	if err := h.service.DeleteBuild(r.Context(), caller.UserID, buildID); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Build deleted")
}

func (h *BuildHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	heroID, err := pathID(r, "heroId")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid hero ID")
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ReorderBuilds(r.Context(), heroID, req.BuildIDs); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Builds reordered")
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func allowedImage(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
