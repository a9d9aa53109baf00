// Package catalog implements the product catalog and settings operations
// on top of a whole-document store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-store/internal/model"
	"github.com/vyrodovalexey/catalog-store/internal/store"
)

// ErrInvalidPayload is returned when a write operation gets no payload.
var ErrInvalidPayload = errors.New("payload must be a JSON object")

// Operation names used in logs and metrics.
const (
	OpListProducts   = "list_products"
	OpCreateProduct  = "create_product"
	OpDeleteProduct  = "delete_product"
	OpGetSettings    = "get_settings"
	OpUpdateSettings = "update_settings"
)

var (
	catalogOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operations_total",
			Help: "Total number of catalog operations by result",
		},
		[]string{"operation", "result"},
	)

	catalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products in the last loaded document",
		},
	)
)

// Notifier receives an event after every successful write.
type Notifier interface {
	Notify(event model.CatalogEvent)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the notifier that receives catalog events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// Service runs each operation as load, mutate, save against the store.
// Writes are serialized by a mutex so concurrent creates in one process
// cannot hand out the same id.
type Service struct {
	store    store.Store
	logger   *zap.Logger
	notifier Notifier
	writeMu  sync.Mutex
}

// NewService creates a new Service.
func NewService(s store.Store, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ListProducts returns every product in stored order.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	doc, err := s.load(ctx, OpListProducts)
	if err != nil {
		return nil, err
	}

	s.record(OpListProducts, nil)
	return doc.Products, nil
}

// CreateProduct assigns the next id to input, appends it and saves.
// Any id supplied by the caller is overwritten; other fields are kept as is.
func (s *Service) CreateProduct(ctx context.Context, input model.Product) (model.Product, error) {
	if input == nil {
		s.record(OpCreateProduct, ErrInvalidPayload)
		return nil, ErrInvalidPayload
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.load(ctx, OpCreateProduct)
	if err != nil {
		return nil, err
	}

	input.SetID(doc.NextProductID())
	doc.Products = append(doc.Products, input)

	if err := s.save(ctx, OpCreateProduct, doc); err != nil {
		return nil, err
	}

	id, _ := input.ID()
	s.logger.Debug("product created", zap.Int64("id", id))
	s.notify(model.NewProductCreatedEvent(input))

	return input, nil
}

// DeleteProduct removes all products with the given id and saves.
// A missing id is not an error; the returned count is zero.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.load(ctx, OpDeleteProduct)
	if err != nil {
		return 0, err
	}

	removed := doc.RemoveProduct(id)

	if err := s.save(ctx, OpDeleteProduct, doc); err != nil {
		return 0, err
	}

	s.logger.Debug("product delete applied",
		zap.Int64("id", id),
		zap.Int("removed", removed),
	)
	s.notify(model.NewProductDeletedEvent(id, removed))

	return removed, nil
}

// GetSettings returns the stored settings.
func (s *Service) GetSettings(ctx context.Context) (model.Settings, error) {
	doc, err := s.load(ctx, OpGetSettings)
	if err != nil {
		return nil, err
	}

	s.record(OpGetSettings, nil)
	return doc.Settings, nil
}

// UpdateSettings shallow-merges patch into the stored settings, saves,
// and returns the full merged map.
func (s *Service) UpdateSettings(ctx context.Context, patch model.Settings) (model.Settings, error) {
	if patch == nil {
		s.record(OpUpdateSettings, ErrInvalidPayload)
		return nil, ErrInvalidPayload
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.load(ctx, OpUpdateSettings)
	if err != nil {
		return nil, err
	}

	doc.Settings.Merge(patch)

	if err := s.save(ctx, OpUpdateSettings, doc); err != nil {
		return nil, err
	}

	s.notify(model.NewSettingsUpdatedEvent(doc.Settings))

	return doc.Settings, nil
}

// load reads the document and records a failure against op.
func (s *Service) load(ctx context.Context, op string) (*model.Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		s.record(op, err)
		return nil, fmt.Errorf("%s: load: %w", op, err)
	}

	catalogProducts.Set(float64(len(doc.Products)))
	return doc, nil
}

// save writes the document and records the outcome against op.
func (s *Service) save(ctx context.Context, op string, doc *model.Document) error {
	if err := s.store.Save(ctx, doc); err != nil {
		s.record(op, err)
		return fmt.Errorf("%s: save: %w", op, err)
	}

	catalogProducts.Set(float64(len(doc.Products)))
	s.record(op, nil)
	return nil
}

func (s *Service) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	catalogOperationsTotal.WithLabelValues(op, result).Inc()
}

func (s *Service) notify(event model.CatalogEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(event)
}
