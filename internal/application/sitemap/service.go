package sitemap

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/commerce"
)

// ChangeFrequency is the sitemaps.org changefreq hint
type ChangeFrequency string

const (
	ChangeFrequencyAlways ChangeFrequency = "always"
	ChangeFrequencyDaily  ChangeFrequency = "daily"
)

// Entry is one sitemap URL entry
type Entry struct {
	URL             string
	LastModified    time.Time
	ChangeFrequency ChangeFrequency
	Priority        float64
}

// Service assembles the storefront sitemap from the commerce catalog
type Service struct {
	platform   commerce.Platform
	baseURL    string
	pageSize   int
	categories []string
	logger     *zap.Logger

	// now is replaceable for tests
	now func() time.Time
}

// NewService creates a new sitemap service. categories is the configured list
// of category slugs to advertise; when empty, the platform's own category
// list is used instead.
func NewService(platform commerce.Platform, baseURL string, pageSize int, categories []string, logger *zap.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		platform:   platform,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate builds the sitemap entries. The root entry always comes first.
// When the catalog cannot be fetched the sitemap degrades to the root entry
// alone rather than failing the request.
func (s *Service) Generate(ctx context.Context) []Entry {
	entries := []Entry{{
		URL:             s.baseURL + "/",
		LastModified:    s.now(),
		ChangeFrequency: ChangeFrequencyAlways,
		Priority:        1.0,
	}}

	products, err := s.platform.ProductBrowse(ctx, &commerce.ProductBrowseRequest{First: s.pageSize})
	if err != nil {
		s.logger.Warn("Sitemap degraded to root entry", zap.Error(err))
		return entries
	}

	for _, product := range products.Products {
		// Unpublished products have no slug and are not addressable
		if product.Slug == "" {
			continue
		}
		entries = append(entries, Entry{
			URL:             s.baseURL + "/product/" + url.PathEscape(product.Slug),
			LastModified:    product.UpdatedAt,
			ChangeFrequency: ChangeFrequencyDaily,
			Priority:        0.8,
		})
	}

	slugs := s.categories
	if len(slugs) == 0 {
		categories, err := s.platform.CategoryList(ctx)
		if err != nil {
			s.logger.Warn("Sitemap degraded to root entry", zap.Error(err))
			return entries[:1]
		}
		for _, category := range categories {
			slugs = append(slugs, category.Slug)
		}
	}

	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		entries = append(entries, Entry{
			URL:             s.baseURL + "/category/" + url.PathEscape(slug),
			LastModified:    s.now(),
			ChangeFrequency: ChangeFrequencyDaily,
			Priority:        0.5,
		})
	}

	return entries
}
