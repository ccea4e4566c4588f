package tests

import (
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/user"
	testutil "github.com/Nicko-rgb/server-notas/tests"
)

func TestMain(m *testing.M) {
	testutil.Setup()

	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ = uni.GetTranslator(enLoc.Locale())
	validate = validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	os.Exit(m.Run())
}
