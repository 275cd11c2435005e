// Package shared wires what both the API server and the admin CLI need.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/user"
)

// NewValidator returns a validator with every custom tag of the app registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	billing.InitValidators(validate, translator)
	return validate, translator
}
