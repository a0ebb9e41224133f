package handler

import (
	stderrors "errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicore/intake-api/pkg/errors"
)

// Bind unmarshals and validates a JSON body. Validator failures come back
// as field-level errors so clients see every invalid field at once.
func Bind(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make([]errors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, errors.FieldError{
				Field:   fe.Field(),
				Message: messageFor(fe),
			})
		}
		return errors.Validation("invalid request", fields...)
	}
	return errors.Validation("invalid request body")
}

// UUIDParam parses a URL path parameter as a UUID.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.Validation("invalid request", errors.FieldError{
			Field:   name,
			Message: "must be a valid UUID",
		})
	}
	return id, nil
}

// UUIDQuery parses a query string parameter as a UUID.
func UUIDQuery(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		return uuid.Nil, errors.Validation("invalid request", errors.FieldError{
			Field:   name,
			Message: "must be a valid UUID",
		})
	}
	return id, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
