package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

var tagNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	tagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, msg string, data interface{}) {
	body := gin.H{"success": true, "message": msg}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// serverError logs err and answers 500 with a generic message.
func serverError(c *gin.Context, msg string, err error) {
	logger.Errorf("%s %s: %s: %v", c.Request.Method, c.FullPath(), msg, err)
	fail(c, http.StatusInternalServerError, msg)
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	useJSONFieldNames()
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Msg: fieldMessage(fe)})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed", "errors": out})
		return false
	}
	fail(c, http.StatusBadRequest, "Invalid request body")
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Valid email is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "Route not found")
}
