package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API documentation endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>campusconecto-api - Swagger</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "campusconecto-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/users/register": {
      "post": {
        "summary": "Create an account",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["fullName","email","password"],"properties":{"fullName":{"type":"string","minLength":2},"email":{"type":"string","format":"email"},"password":{"type":"string","minLength":6},"qualification":{"type":"string"},"branch":{"type":"string"},"year":{"type":"string"},"subjects":{"type":"array","items":{"type":"string"}}}}}}},
        "responses": { "201": { "description": "account created, tokens returned" }, "400": { "description": "validation failed or user exists" } }
      }
    },
    "/api/users/login": {
      "post": {
        "summary": "Sign in with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned" }, "400": { "description": "invalid email or password" } }
      }
    },
    "/api/users/token/refresh": {
      "post": { "summary": "Exchange a refresh token for an access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh token" } } }
    },
    "/api/users/logout": {
      "post": { "summary": "Drop the refresh session and revoke the access token", "security": [{"bearer": []}], "responses": { "200": { "description": "logged out" } } }
    },
    "/api/users/sso": {
      "post": { "summary": "Sign in with a campus identity token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"idToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid identity token" }, "404": { "description": "single sign-on not configured" } } }
    },
    "/api/users/me": {
      "get": { "summary": "Own profile with friends", "security": [{"bearer": []}], "responses": { "200": { "description": "profile" }, "404": { "description": "user not found" } } }
    },
    "/api/users/profile": {
      "post": { "summary": "Update profile fields", "security": [{"bearer": []}], "responses": { "200": { "description": "updated user" }, "400": { "description": "username taken" } } }
    },
    "/api/users/search": {
      "get": { "summary": "Search other users", "security": [{"bearer": []}], "parameters": [{"name":"q","in":"query","schema":{"type":"string"}},{"name":"mode","in":"query","schema":{"type":"string","enum":["email","username","name"]}}], "responses": { "200": { "description": "public user views" } } }
    },
    "/api/users/add-friend": {
      "post": { "summary": "Add a friend", "security": [{"bearer": []}], "responses": { "200": { "description": "friend ids" }, "400": { "description": "invalid request" }, "404": { "description": "friend not found" } } }
    },
    "/api/users/remove-friend": {
      "post": { "summary": "Remove a friend", "security": [{"bearer": []}], "responses": { "200": { "description": "friend ids" }, "404": { "description": "friend not found" } } }
    },
    "/api/users/password/send-otp": {
      "post": { "summary": "Email a password reset code", "responses": { "200": { "description": "code sent" }, "404": { "description": "no user with this email" }, "500": { "description": "email delivery failed" } } }
    },
    "/api/users/password/verify-otp": {
      "post": { "summary": "Check a reset code", "responses": { "200": { "description": "code valid" }, "400": { "description": "invalid or expired" } } }
    },
    "/api/users/password/reset": {
      "post": { "summary": "Reset the password with a code", "responses": { "200": { "description": "password reset" }, "400": { "description": "invalid or expired" } } }
    },
    "/api/posts": {
      "post": { "summary": "Create a post (multipart text, file, attachments)", "security": [{"bearer": []}], "responses": { "201": { "description": "post" } } }
    },
    "/api/posts/me": { "get": { "summary": "Own posts, newest first", "security": [{"bearer": []}], "responses": { "200": { "description": "posts" } } } },
    "/api/posts/feed": { "get": { "summary": "Latest posts", "security": [{"bearer": []}], "responses": { "200": { "description": "posts" } } } },
    "/api/posts/{id}": {
      "put": { "summary": "Edit own post text", "security": [{"bearer": []}], "responses": { "200": { "description": "post" }, "401": { "description": "not the owner" }, "404": { "description": "post not found" } } },
      "delete": { "summary": "Delete own post", "security": [{"bearer": []}], "responses": { "200": { "description": "post removed" }, "401": { "description": "not the owner" }, "404": { "description": "post not found" } } }
    },
    "/api/messages/{friendId}": { "get": { "summary": "Conversation with a user, newest first", "security": [{"bearer": []}], "responses": { "200": { "description": "messages" } } } },
    "/api/messages/send/{friendId}": { "post": { "summary": "Send a direct message", "security": [{"bearer": []}], "responses": { "200": { "description": "message" }, "404": { "description": "recipient not found" } } } },
    "/api/upload/profile-image": { "post": { "summary": "Upload a profile image", "security": [{"bearer": []}], "responses": { "201": { "description": "url, type, size" } } } },
    "/api/upload/resource": { "post": { "summary": "Upload a resource file", "security": [{"bearer": []}], "responses": { "201": { "description": "name, url, type, size" } } } },
    "/api/upload/download": { "get": { "summary": "Download a stored file as an attachment", "security": [{"bearer": []}], "responses": { "200": { "description": "file" }, "400": { "description": "missing or unsupported url" } } } },
    "/ws": { "get": { "summary": "Realtime relay websocket", "responses": { "101": { "description": "switching protocols" }, "401": { "description": "not authorized" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
