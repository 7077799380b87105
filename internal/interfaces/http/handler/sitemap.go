package handler

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	sitemapapp "github.com/storefront/backend/internal/application/sitemap"
)

// SitemapHandler renders the sitemaps.org XML document
type SitemapHandler struct {
	BaseHandler
	sitemap *sitemapapp.Service
}

// NewSitemapHandler creates a new SitemapHandler
func NewSitemapHandler(sitemap *sitemapapp.Service) *SitemapHandler {
	return &SitemapHandler{sitemap: sitemap}
}

// RegisterRoutes registers the sitemap at the engine root; the document must
// live at /sitemap.xml for crawlers to find it.
func (h *SitemapHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sitemap.xml", h.GetSitemap)
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

// GetSitemap renders the sitemap
func (h *SitemapHandler) GetSitemap(c *gin.Context) {
	entries := h.sitemap.Generate(c.Request.Context())

	out := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]urlEntry, 0, len(entries)),
	}
	for _, entry := range entries {
		out.URLs = append(out.URLs, urlEntry{
			Loc:        entry.URL,
			LastMod:    entry.LastModified.UTC().Format(time.RFC3339),
			ChangeFreq: string(entry.ChangeFrequency),
			Priority:   entry.Priority,
		})
	}

	c.XML(http.StatusOK, out)
}
