package middleware

import (
	"fmt"

	"storecore/internal/geo"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CountryTag accepts ISO alpha-2/alpha-3 codes and the country names
// geo.NormalizeCountry knows. validator/v10 already owns "country_code" as an
// alias, so the tag must not reuse that name.
const CountryTag = "iso_country"

// RegisterValidators adds the custom binding tags used by request DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation(CountryTag, func(fl validator.FieldLevel) bool {
		return geo.IsCountry(fl.Field().String())
	})
}
