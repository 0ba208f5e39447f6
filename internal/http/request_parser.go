// Package http provides the dashboard's HTTP server and handlers.
//
// This file decodes and validates the add and delete forms.
package http

import (
	"errors"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"controlepix/internal/core"
	"controlepix/internal/services"
)

// TransactionForm is the add form as submitted.
type TransactionForm struct {
	Kind        string `form:"kind" validate:"required,ledger_kind"`
	Month       string `form:"month" validate:"ledger_month"`
	Amount      string `form:"amount" validate:"required,ledger_amount"`
	Description string `form:"description"`
}

// DeleteForm is the delete selector as submitted.
type DeleteForm struct {
	ID string `form:"id" validate:"required,number"`
}

// fieldMessages maps a form field to the message shown when it is rejected.
var fieldMessages = map[string]string{
	"kind":   "Tipo inválido: escolha Entrada ou Saída",
	"month":  "Mês inválido",
	"amount": "Valor inválido: informe um número maior ou igual a zero",
	"id":     "Selecione uma transação para excluir",
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("ledger_kind", validateKind)
	_ = v.RegisterValidation("ledger_month", validateMonth)
	_ = v.RegisterValidation("ledger_amount", validateAmount)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	return v
}

func validateKind(fl validator.FieldLevel) bool {
	return core.NormalizeKind(fl.Field().String()).IsKnown()
}

func validateMonth(fl validator.FieldLevel) bool {
	return slices.Contains(core.Months, fl.Field().String())
}

func validateAmount(fl validator.FieldLevel) bool {
	d, err := core.ParseInputAmount(fl.Field().String())
	return err == nil && !d.IsNegative()
}

// FormError lists user-facing messages for every rejected field.
type FormError struct {
	Messages []string
}

func (e *FormError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := &FormError{}
	for _, ve := range verrs {
		msg, ok := fieldMessages[ve.Field()]
		if !ok {
			msg = "Campo inválido: " + ve.Field()
		}
		fe.Messages = append(fe.Messages, msg)
	}
	return fe
}

// ParseAddForm reads and validates the add form. The amount is parsed here so
// the dashboard receives a decimal; it is kept as entered.
func ParseAddForm(r *http.Request) (services.AddAction, error) {
	if err := r.ParseForm(); err != nil {
		return services.AddAction{}, &FormError{Messages: []string{"Formato de requisição inválido"}}
	}

	form := TransactionForm{
		Kind:        strings.TrimSpace(r.PostForm.Get("kind")),
		Month:       strings.TrimSpace(r.PostForm.Get("month")),
		Amount:      strings.TrimSpace(r.PostForm.Get("amount")),
		Description: sanitizeInput(r.PostForm.Get("description")),
	}
	if err := formValidator.Struct(form); err != nil {
		return services.AddAction{}, validationError(err)
	}

	amount, err := core.ParseInputAmount(form.Amount)
	if err != nil {
		return services.AddAction{}, &FormError{Messages: []string{fieldMessages["amount"]}}
	}

	return services.AddAction{
		Kind:        form.Kind,
		Month:       form.Month,
		Amount:      amount,
		Description: form.Description,
	}, nil
}

// ParseDeleteForm reads the id picked in the delete selector.
func ParseDeleteForm(r *http.Request) (services.DeleteAction, error) {
	if err := r.ParseForm(); err != nil {
		return services.DeleteAction{}, &FormError{Messages: []string{"Formato de requisição inválido"}}
	}

	form := DeleteForm{ID: strings.TrimSpace(r.PostForm.Get("id"))}
	if err := formValidator.Struct(form); err != nil {
		return services.DeleteAction{}, validationError(err)
	}

	id, err := strconv.ParseInt(form.ID, 10, 64)
	if err != nil || id <= 0 {
		return services.DeleteAction{}, &FormError{Messages: []string{fieldMessages["id"]}}
	}
	return services.DeleteAction{ID: id}, nil
}

// sanitizeInput removes control characters except tab and newlines, and trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s))
}
