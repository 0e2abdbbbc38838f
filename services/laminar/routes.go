// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package laminar

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all laminar routes with the router.
//
// Description:
//
//	Registers all /v1/laminar/* endpoints with the given Gin router group.
//	Extraction endpoints are rate limited; health is not.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/laminar/extract - Extract candidates from one artifact
//	POST /v1/laminar/filter - Apply filter rules to candidates
//	GET  /v1/laminar/health - Health check
//
// Example:
//
//	scanner := scan.NewScanner(ast.NewJavaScriptTokenizer())
//	handlers := laminar.NewHandlers(scanner, laminar.HandlersConfig{})
//
//	v1 := router.Group("/v1")
//	laminar.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	laminar := rg.Group("/laminar")
	{
		laminar.GET("/health", handlers.HandleHealth)

		limited := laminar.Group("")
		limited.Use(handlers.RateLimit())
		{
			limited.POST("/extract", handlers.HandleExtract)
			limited.POST("/filter", handlers.HandleFilter)
		}
	}
}
