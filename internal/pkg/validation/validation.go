package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/book-rental-backend/internal/pkg/dates"
)

var once sync.Once

// Register installs the custom binding tags on gin's validator engine.
// Safe to call more than once.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("isodate", isoDate)
	})
	return err
}

// isoDate accepts strings in YYYY-MM-DD form. Empty strings pass so it composes with omitempty.
func isoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := dates.Parse(s)
	return err == nil
}
