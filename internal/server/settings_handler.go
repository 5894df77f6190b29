package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harborloop/settingsd/internal/auth"
	"github.com/harborloop/settingsd/internal/settings"
	"github.com/harborloop/settingsd/internal/store"
)

// SettingsHandler handles setting read and write requests. The subject is
// taken from X-Subject-ID; its permission tokens from X-Permissions. Both
// are established by the fronting proxy and opaque here.
type SettingsHandler struct {
	svc    *settings.Service
	logger *zap.Logger
}

// NewSettingsHandler creates the handler over the service façade.
func NewSettingsHandler(svc *settings.Service, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, logger: logger}
}

// Health handles GET /healthz
func (h *SettingsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

type sectionResponse struct {
	Name     string               `json:"name"`
	Settings []definitionResponse `json:"settings"`
}

type definitionResponse struct {
	Key         string      `json:"key"`
	Type        string      `json:"type"`
	Section     string      `json:"section"`
	Description string      `json:"description,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Default     interface{} `json:"default"`
}

// Sections handles GET /api/v1/settings/sections. Definitions gated by a
// permission token the caller doesn't hold are filtered out.
func (h *SettingsHandler) Sections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sub := auth.SubjectFromContext(r.Context())

	// Initialized so a fully filtered result serializes as [] rather
	// than null.
	resp := []sectionResponse{}
	for _, section := range h.svc.VisibleBySection() {
		out := sectionResponse{Name: section.Name}
		for _, def := range section.Definitions {
			if !sub.Can(def.Permission) {
				continue
			}
			out.Settings = append(out.Settings, definitionResponse{
				Key:         def.Key,
				Type:        def.Type.String(),
				Section:     def.Section,
				Description: def.Description,
				Options:     def.Options,
				Default:     def.Default,
			})
		}
		if len(out.Settings) > 0 {
			resp = append(resp, out)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Setting handles GET and PUT /api/v1/settings/{key}
func (h *SettingsHandler) Setting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/v1/settings/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSetting(w, r, key)
	case http.MethodPut:
		h.putSetting(w, r, key)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SettingsHandler) getSetting(w http.ResponseWriter, r *http.Request, key string) {
	sub := auth.SubjectFromContext(r.Context())

	def, ok := h.svc.Describe(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	if !sub.Can(def.Permission) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	value, err := h.svc.Get(r.Context(), sub.ID, key)
	if err != nil {
		h.respondServiceError(w, err, key)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":   key,
		"type":  def.Type.String(),
		"value": value,
	})
}

type putSettingRequest struct {
	Value *string `json:"value"`
}

func (h *SettingsHandler) putSetting(w http.ResponseWriter, r *http.Request, key string) {
	sub := auth.SubjectFromContext(r.Context())
	if sub.Anonymous() {
		writeError(w, http.StatusBadRequest, "subject required")
		return
	}

	def, ok := h.svc.Describe(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	if !sub.Can(def.Permission) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Set(r.Context(), sub.ID, key, req.Value); err != nil {
		h.respondServiceError(w, err, key)
		return
	}

	value, err := h.svc.Get(r.Context(), sub.ID, key)
	if err != nil {
		h.respondServiceError(w, err, key)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":   key,
		"type":  def.Type.String(),
		"value": value,
	})
}

func (h *SettingsHandler) respondServiceError(w http.ResponseWriter, err error, key string) {
	var pe *store.PersistenceError
	switch {
	case errors.Is(err, settings.ErrUnknownKey):
		writeError(w, http.StatusNotFound, "unknown setting")
	case errors.Is(err, settings.ErrNoSubject):
		writeError(w, http.StatusBadRequest, "subject required")
	case errors.As(err, &pe):
		h.logger.Error("Override store unavailable", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		h.logger.Error("Settings request failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
