package webutil

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/ar"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ar_translations "github.com/go-playground/validator/v10/translations/ar"

	"github.com/on-their-footsteps/backend/internal/model"
)

// Validator is the shared validator instance. Field names in messages come
// from JSON tags; messages are translated to Arabic for learner-facing
// endpoints.
var Validator *validator.Validate

// Trans translates validation errors.
var Trans ut.Translator

func init() {
	Validator = validator.New()

	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	arabic := ar.New()
	uni := ut.New(arabic, arabic)
	var found bool
	Trans, found = uni.GetTranslator("ar")
	if !found {
		log.Fatal("arabic translator not found")
	}

	if err := ar_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}
}

// ValidateStruct runs the shared validator and converts the first failure
// into an AppError suitable for HandleError.
func ValidateStruct(s interface{}) error {
	if err := Validator.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return model.NewAppError(
				"VALIDATION_ERROR",
				first.Translate(Trans),
				first.Field(),
				model.ErrInvalidInput,
			)
		}
		return err
	}
	return nil
}
