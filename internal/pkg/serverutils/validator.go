package serverutils

import (
	"errors"

	"notebook-ai-be/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and converts failures into a
// client-visible BadRequest.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return apperrors.BadRequest("field '%s' failed validation on '%s'", f.Field(), f.Tag())
	}
	return apperrors.BadRequest("invalid request payload")
}
