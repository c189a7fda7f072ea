package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Payment реквизиты карты для имитации оплаты. Никуда не отправляются.
type Payment struct {
	CardholderName string `json:"cardholderName" validate:"required"`
	CardNumber     string `json:"cardNumber" validate:"required,len=16,number"`
	ExpiryDate     string `json:"expiryDate" validate:"required,datetime=01/06"`
	CVC            string `json:"cvc" validate:"required,min=3,max=4,number"`
}

var paymentValidator = newPaymentValidator()

func newPaymentValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

var paymentMessages = map[string]string{
	"cardholderName": "cardholder name is required",
	"cardNumber":     "card number must be 16 digits",
	"expiryDate":     "expiry date must be MM/YY",
	"cvc":            "cvc must be 3 or 4 digits",
}

// Validate reports the first invalid field as a ValidationError.
func (p Payment) Validate() error {
	p.CardholderName = strings.TrimSpace(p.CardholderName)
	err := paymentValidator.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := paymentMessages[verrs[0].Field()]; ok {
			return invalid("%s", msg)
		}
	}
	return invalid("invalid payment details")
}
