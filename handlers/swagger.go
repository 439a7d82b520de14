package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>jargoyle — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the session and document endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "jargoyle", "version": "v0.1.0" },
  "paths": {
    "/api/auth/me": {
      "get": { "summary": "Current authenticated user", "responses": { "200": { "description": "user projection: id, email, displayName, oauthProvider" }, "401": { "description": "no valid session" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Terminate the session", "responses": { "204": { "description": "session cleared (idempotent)" } } }
    },
    "/oauth2/authorization/{provider}": {
      "get": { "summary": "Begin OIDC login", "parameters": [{"name":"provider","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "302": { "description": "redirect to the provider" }, "404": { "description": "unknown provider" } } }
    },
    "/api/documents": {
      "get": { "summary": "List the user's documents", "parameters": [{"name":"page","in":"query","schema":{"type":"integer"}},{"name":"size","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "paginated documents" }, "401": { "description": "no valid session" } } },
      "post": { "summary": "Upload a document", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"},"title":{"type":"string"}}}}}}, "responses": { "201": { "description": "document created, summarization pending" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Document detail with summary", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "document and summary when generated" }, "404": { "description": "not found or not owned" } } },
      "patch": { "summary": "Update title or document type", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"documentType":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated document" } } },
      "delete": { "summary": "Delete a document", "responses": { "204": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
