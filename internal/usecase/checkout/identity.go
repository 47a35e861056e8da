package checkout

import (
	"strings"

	"pix-storefront/internal/domain"
)

// Form — значения полей в том виде, в каком их видит пользователь.
type Form struct {
	Name  string
	CPF   string
	Email string
	Phone string
}

// FieldError описывает незаполненное поле формы.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return "checkout: " + e.Field + ": " + e.Message
}

// IdentitySource даёт данные плательщика для запроса на оплату.
type IdentitySource interface {
	Identity(form Form) (domain.Customer, error)
}

// FormIdentity берёт плательщика из формы и требует все поля.
type FormIdentity struct{}

func (FormIdentity) Identity(form Form) (domain.Customer, error) {
	customer := domain.Customer{
		Name:  strings.TrimSpace(form.Name),
		CPF:   domain.Digits(form.CPF),
		Email: strings.TrimSpace(form.Email),
		Phone: domain.Digits(form.Phone),
	}
	for _, field := range []struct {
		name, value string
	}{
		{"name", customer.Name},
		{"cpf", customer.CPF},
		{"email", customer.Email},
		{"phone", customer.Phone},
	} {
		if field.value == "" {
			return domain.Customer{}, &FieldError{Field: field.name, Message: MsgFillAllFields}
		}
	}
	return customer, nil
}

// PlaceholderIdentity подставляет фиксированного плательщика и не смотрит на форму.
type PlaceholderIdentity domain.Customer

// DefaultPlaceholder используется, когда витрина не собирает данные заранее.
var DefaultPlaceholder = PlaceholderIdentity{
	Name:  "Cliente",
	CPF:   "00000000000",
	Email: "cliente@example.com",
	Phone: "11999999999",
}

func (p PlaceholderIdentity) Identity(Form) (domain.Customer, error) {
	return domain.Customer(p), nil
}
