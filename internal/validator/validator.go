// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"wealthplan/internal/allocation"
	"wealthplan/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("variant", validateVariant)
		_ = v.RegisterValidation("variant_target", validateVariantTarget)
		_ = v.RegisterValidation("liquidity", validateLiquidity)
		_ = v.RegisterValidation("risk_profile", validateRiskProfile)
	}
}

func validateVariant(fl validator.FieldLevel) bool {
	_, err := allocation.ParseVariant(fl.Field().String())
	return err == nil
}

func validateVariantTarget(fl validator.FieldLevel) bool {
	_, err := allocation.ParseTarget(fl.Field().String())
	return err == nil
}

// validateLiquidity accepts free-text liquidity preferences that are not
// blank and carry no control characters, since the text is embedded in
// advisory prompts.
func validateLiquidity(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" {
		return false
	}
	return strings.IndexFunc(s, unicode.IsControl) < 0
}

func validateRiskProfile(fl validator.FieldLevel) bool {
	_, err := models.ParseRiskProfile(fl.Field().String())
	return err == nil
}
