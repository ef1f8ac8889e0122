package router

import (
	"os"
	"path/filepath"

	"literary-character-ai/backend/pkg/validator"
)

// AddOpenAPIValidation validates requests against the schema at schemaPath
// and serves the schema under /api/docs. A missing or invalid schema only
// disables validation. Must run before SetupRoutes so the middleware covers
// every route.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	if schemaPath == "" {
		return
	}
	if !fileExists(schemaPath) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.LogError(err, "Failed to initialize OpenAPI validator", "path", schemaPath)
		return
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath)

	r.Engine.StaticFile("/api/docs/"+filepath.Base(schemaPath), schemaPath)
	r.Logger.Info("OpenAPI schema available", "url", "/api/docs/"+filepath.Base(schemaPath))
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
