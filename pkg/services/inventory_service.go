package services

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"time"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

const inventoryFlatPath = "/products/inventory/flat"

// ProductService wraps the products backend: product CRUD and the flattened
// inventory.
type ProductService struct {
	client       *apiclient.Client
	products     resource
	baseURL      string
	fallbackPort string
	inventory    *ListingCache[InventoryListing]
}

// NewProductService creates a ProductService. An empty fallbackPort disables
// the alternate host for the inventory fetch.
func NewProductService(client *apiclient.Client, baseURL, fallbackPort string) *ProductService {
	r := newResource(client, baseURL, "/products")
	return &ProductService{
		client:       client,
		products:     r,
		baseURL:      r.baseURL,
		fallbackPort: fallbackPort,
		inventory:    NewListingCache[InventoryListing](DefaultListingTTL),
	}
}

// Products lists all products.
func (s *ProductService) Products(ctx context.Context) (models.Record, error) {
	return s.products.list(ctx)
}

// Product returns one product.
func (s *ProductService) Product(ctx context.Context, id string) (models.Record, error) {
	return s.products.get(ctx, id)
}

// CreateProduct creates a product.
func (s *ProductService) CreateProduct(ctx context.Context, body map[string]interface{}) (models.Record, error) {
	return s.products.create(ctx, body)
}

// UpdateProduct patches a product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, body map[string]interface{}) (models.Record, error) {
	return s.products.update(ctx, id, body)
}

// DeleteProduct deletes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.products.remove(ctx, id)
	return err
}

// InventoryURL is the primary flat inventory endpoint.
func (s *ProductService) InventoryURL() string {
	return s.baseURL + inventoryFlatPath
}

// InventoryFlat fetches the flattened inventory. A failure against the
// primary host is retried exactly once against the same URL on the fallback
// port; if that fails too the error carries both messages.
func (s *ProductService) InventoryFlat(ctx context.Context) ([]models.InventoryItem, error) {
	primary := s.InventoryURL()
	items, err := s.fetchInventory(ctx, primary)
	if err == nil {
		return items, nil
	}
	if s.fallbackPort == "" {
		return nil, err
	}

	alternate, urlErr := WithPort(primary, s.fallbackPort)
	if urlErr != nil {
		return nil, fmt.Errorf("%v; fallback URL: %v", err, urlErr)
	}
	if alternate == primary {
		return nil, err
	}

	log.Printf("🔁 [inventory] primary %s failed, trying %s", primary, alternate)
	items, fbErr := s.fetchInventory(ctx, alternate)
	if fbErr != nil {
		return nil, fmt.Errorf("primary %s: %v; fallback %s: %v", primary, err, alternate, fbErr)
	}
	return items, nil
}

func (s *ProductService) fetchInventory(ctx context.Context, target string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if _, err := s.client.Get(ctx, target, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// WithPort replaces the port of rawURL, keeping scheme, host and path.
func WithPort(rawURL, port string) (string, error) {
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid port %q", port)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}
	u.Host = net.JoinHostPort(u.Hostname(), port)
	return u.String(), nil
}

// InventoryListing is what the inventory view shows. On failure Items holds
// the static sample and ErrorDetail the upstream message.
type InventoryListing struct {
	Items       []models.InventoryItem `json:"items"`
	Source      string                 `json:"source"`
	RequestURL  string                 `json:"request_url"`
	Warning     string                 `json:"warning,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// ListInventory never fails; see InventoryListing.
func (s *ProductService) ListInventory(ctx context.Context) InventoryListing {
	listing := InventoryListing{RequestURL: s.InventoryURL()}
	items, err := s.InventoryFlat(ctx)
	if err != nil {
		listing.Items = SampleInventory()
		listing.Source = SourceFallback
		listing.ErrorDetail = err.Error()
		if apiclient.IsConnectionError(err) {
			listing.Warning = fmt.Sprintf("Could not reach the backend, showing sample data. Check that the backend is running at %s and exposes %s", s.baseURL, inventoryFlatPath)
		} else {
			listing.Warning = "The backend answered with an error, showing sample data."
		}
		return listing
	}
	listing.Items = items
	listing.Source = SourceBackend
	return listing
}

// InventorySnapshot returns the inventory loaded when the view was opened,
// fetching again only on first use, expiry or refresh.
func (s *ProductService) InventorySnapshot(ctx context.Context, refresh bool) (InventoryListing, time.Time) {
	return s.inventory.Get(inventoryFlatPath, refresh, func() InventoryListing {
		return s.ListInventory(ctx)
	})
}

// SampleInventory is the static dataset shown when the inventory cannot be
// fetched.
func SampleInventory() []models.InventoryItem {
	return []models.InventoryItem{
		{ID: "1", ProductCode: "PROD001", Name: "Pollo en Salsa de Chipotle", Description: "Plato principal", WeightOrVolume: "250g", LotNumber: "LOT-2024-001", ExpiryDate: "2025-12-31", Quantity: 92},
		{ID: "2", ProductCode: "PROD002", Name: "Pasta Alfredo Vegetales", Description: "Plato vegetariano", WeightOrVolume: "300g", LotNumber: "LOT-2024-002", ExpiryDate: "2025-11-30", Quantity: 70},
		{ID: "3", ProductCode: "PROD003", Name: "Jugo de Naranja", Description: "Bebida natural", WeightOrVolume: "250ml", LotNumber: "LOT-2024-003", ExpiryDate: "2025-10-31", Quantity: 92},
		{ID: "4", ProductCode: "PROD004", Name: "Ensalada César", Description: "Entrada fresca", WeightOrVolume: "200g", LotNumber: "LOT-2024-004", ExpiryDate: "2025-10-28", Quantity: 50},
	}
}

// FilterInventory matches term against code, name, description,
// weight/volume, lot, expiry and quantity.
func FilterInventory(items []models.InventoryItem, term string) []models.InventoryItem {
	return filterRows(items, term, func(it models.InventoryItem) []string {
		return []string{
			it.ProductCode,
			it.DisplayName(),
			it.Description,
			it.WeightOrVolume,
			it.LotNumber,
			it.ExpiryDate,
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
		}
	})
}
