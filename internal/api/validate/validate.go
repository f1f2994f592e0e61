package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

var (
	vld     *validator.Validate
	vldOnce sync.Once
)

// instance reports fields by their json name so errors match the payload.
func instance() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return vld
}

// Struct checks v's `validate` tags and returns one ErrField per failing
// field, or nil.
func Struct(v any) Errs {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Errs{{Field: "body", Msg: err.Error()}}
	}
	out := make(Errs, 0, len(ves))
	for _, fe := range ves {
		out = append(out, ErrField{Field: fe.Field(), Msg: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	p := fe.Param()
	length := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "required"
	case "min", "gte":
		if length {
			return "length must be >= " + p
		}
		return "must be >= " + p
	case "max", "lte":
		if length {
			return "length must be <= " + p
		}
		return "must be <= " + p
	case "len":
		return "length must be " + p
	default:
		return "failed " + fe.Tag() + " check"
	}
}
