package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/napthedev/edura/core"
)

var (
	roleTag  = "role"
	roleText = "{0} must be one of manager, teacher or student"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	return IsValidRole(fl.Field().String())
}
