package config

// Catalog layout and format constants
const (
	// Default on-disk catalog directory, relative to the working directory
	CatalogBasePath = "catalog"

	YAMLExtension    = ".yaml"
	YMLExtension     = ".yml"
	JSONExtension    = ".json"
	MimeTypeSVG      = "image/svg+xml"
	MimeTypeHTML     = "text/html; charset=utf-8"
	BuiltinSourceTag = "builtin"
)

// HTTP API path constants
const (
	APIBasePath = "/api/v1"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// CatalogExtensions lists the file extensions the catalog loader accepts
var CatalogExtensions = []string{YAMLExtension, YMLExtension, JSONExtension}

// IsCatalogFile reports whether the file extension is a catalog format
func IsCatalogFile(ext string) bool {
	for _, e := range CatalogExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
