package console

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"toll-console/internal/async"
)

const msgAllRequired = "All fields are required"

// FormState is the rendered view of a create form.
type FormState struct {
	Values     map[string]string `json:"values"`
	Submitting bool              `json:"submitting"`
	Error      string            `json:"error,omitempty"`
	Success    string            `json:"success,omitempty"`
}

// createForm runs one submit cycle at a time: validate locally, call
// create, then either reset and confirm or keep the input and report.
type createForm[P, R any] struct {
	fields  []string
	parse   func(map[string]string) (P, string)
	create  func(context.Context, P) (R, error)
	success func(R) string
	failMsg string
	after   func()

	req    *async.Request[R]
	flash  *async.Flash
	log    *slog.Logger
	notify func()

	mu      sync.Mutex
	values  map[string]string
	formErr string
}

func newCreateForm[P, R any](b *base, form any, parse func(map[string]string) (P, string), create func(context.Context, P) (R, error)) *createForm[P, R] {
	f := &createForm[P, R]{
		fields: formFields(form),
		parse:  parse,
		create: create,
		req:    async.NewRequest[R](b.scope, b.notify),
		flash:  b.newFlash(),
		log:    b.log,
		notify: b.notify,
	}
	f.values = f.blank()
	return f
}

func (f *createForm[P, R]) blank() map[string]string {
	m := make(map[string]string, len(f.fields))
	for _, name := range f.fields {
		m[name] = ""
	}
	return m
}

func (f *createForm[P, R]) submit(fields map[string]string) {
	if f.req.Pending() {
		return
	}
	f.flash.Clear()

	values := f.blank()
	for name := range values {
		values[name] = fields[name]
	}
	payload, msg := f.parse(values)

	f.mu.Lock()
	f.values = values
	f.formErr = msg
	f.mu.Unlock()
	if msg != "" {
		f.notify()
		return
	}

	f.req.Run(func(ctx context.Context) (R, error) {
		return f.create(ctx, payload)
	}, func(st async.State[R]) {
		if st.Err != nil {
			f.log.Error("create failed", "err", st.Err)
			f.mu.Lock()
			f.formErr = f.failMsg
			f.mu.Unlock()
			return
		}
		f.mu.Lock()
		f.values = f.blank()
		f.mu.Unlock()
		f.flash.Show(f.success(st.Value))
		if f.after != nil {
			f.after()
		}
	})
}

func (f *createForm[P, R]) state() FormState {
	f.mu.Lock()
	values := make(map[string]string, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	s := FormState{Values: values, Error: f.formErr}
	f.mu.Unlock()
	s.Submitting = f.req.Pending()
	s.Success = f.flash.Message()
	return s
}

var validate = newValidator()

// Field names in validation errors are the `label` tags so messages read
// the way the form does.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	_ = v.RegisterValidation("float", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(fl.Field().String(), 64)
		return err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	})
	_ = v.RegisterValidation("int", func(fl validator.FieldLevel) bool {
		_, err := strconv.ParseInt(fl.Field().String(), 10, 64)
		return err == nil
	})
	return v
}

// decodeForm copies fields into the `form`-tagged string fields of dst and
// validates it. It returns the user-facing message, or "" when valid.
func decodeForm(dst any, fields map[string]string) string {
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("form"); name != "" {
			v.Field(i).SetString(strings.TrimSpace(fields[name]))
		}
	}
	err := validate.Struct(dst)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	return formatValidationError(verrs)
}

func formatValidationError(errs validator.ValidationErrors) string {
	for _, err := range errs {
		if err.Tag() == "required" {
			return msgAllRequired
		}
	}
	err := errs[0]
	switch err.Tag() {
	case "float", "int":
		return err.Field() + " must be a number"
	case "oneof":
		return err.Field() + " must be one of " + strings.Join(strings.Fields(err.Param()), ", ")
	default:
		return err.Field() + " failed " + err.Tag() + " validation"
	}
}

func formFields(form any) []string {
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("form"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Values are validated before conversion.
func toFloat(s string) float64 {
	n, _ := strconv.ParseFloat(s, 64)
	return n
}

func toInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
