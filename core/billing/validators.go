package billing

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/napthedev/edura/core"
)

var (
	statusTag  = "billstatus"
	statusText = "{0} must be one of pending, paid, overdue or cancelled"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}
