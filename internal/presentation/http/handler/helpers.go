package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/apperror"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserPermissions extracts the user permissions from the Gin context
func GetUserPermissions(c *gin.Context) []string {
	permissions, _ := c.Get("user_permissions")
	list, _ := permissions.([]string)
	return list
}

// requireUser writes a 401 and returns false when the request carries no user
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return uuid.Nil, false
	}
	return *userID, true
}

// pathID parses the :id parameter
func pathID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.NewFieldError("id", fmt.Sprintf("Invalid %s ID", resource)))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req. Binding tag failures come back as field
// errors, anything else as a malformed body.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   jsonPath(fe.Namespace()),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		response.ValidationError(c, fields)
		return false
	}

	response.Error(c, apperror.NewBadRequestError("Invalid request body"))
	return false
}

// jsonPath drops the request type from a namespace such as
// "CheckoutRequest.items[0].product_id"
func jsonPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

var jsonNamesOnce sync.Once

// UseJSONFieldNames makes binding errors name fields by their json tags
func UseJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
