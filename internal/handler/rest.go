package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-store/internal/catalog"
	"github.com/vyrodovalexey/catalog-store/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// maxBodyBytes caps request bodies for product and settings writes.
const maxBodyBytes = 1 << 20

// CatalogService is the set of catalog operations served over HTTP.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, input model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int, error)
	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, patch model.Settings) (model.Settings, error)
}

// RESTHandler handles REST API requests for products and settings.
type RESTHandler struct {
	service CatalogService
	logger  *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(s CatalogService, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		service: s,
		logger:  logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products", h.CreateProduct).Methods(http.MethodPost)
	router.HandleFunc("/api/products/{id:[0-9]+}", h.DeleteProduct).Methods(http.MethodDelete)
	router.HandleFunc("/api/settings", h.GetSettings).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", h.UpdateSettings).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ListProducts handles GET /api/products requests.
func (h *RESTHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.handleServiceError(w, err, catalog.OpListProducts)
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/products requests.
func (h *RESTHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeObject(w, r)
	if !ok {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), model.Product(input))
	if err != nil {
		h.handleServiceError(w, err, catalog.OpCreateProduct)
		return
	}

	h.writeJSON(w, http.StatusCreated, product)
}

// DeleteProduct handles DELETE /api/products/{id} requests.
func (h *RESTHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if _, err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.handleServiceError(w, err, catalog.OpDeleteProduct)
		return
	}

	h.writeJSON(w, http.StatusOK, model.StatusResponse{Status: model.StatusDeleted})
}

// GetSettings handles GET /api/settings requests.
func (h *RESTHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.handleServiceError(w, err, catalog.OpGetSettings)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles POST /api/settings requests.
func (h *RESTHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodeObject(w, r)
	if !ok {
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), model.Settings(patch))
	if err != nil {
		h.handleServiceError(w, err, catalog.OpUpdateSettings)
		return
	}

	h.writeJSON(w, http.StatusOK, settings)
}

// decodeObject decodes a JSON object body. It writes a 400 response and
// returns false when the body is not valid JSON or not an object.
func (h *RESTHandler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body any
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := model.JSON.NewDecoder(reader).Decode(&body); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	obj, ok := body.(map[string]any)
	if !ok {
		h.logger.Warn("request body is not a JSON object")
		h.writeError(w, http.StatusBadRequest, catalog.ErrInvalidPayload.Error())
		return nil, false
	}

	return obj, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *RESTHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	if errors.Is(err, catalog.ErrInvalidPayload) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error("catalog operation failed", zap.String("operation", operation), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := model.JSON.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{
		Code:    status,
		Message: message,
	})
}
