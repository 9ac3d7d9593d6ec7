package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// User-facing messages.
const (
	msgNameRequired  = "O nome da peça é obrigatório."
	msgPricePositive = "O valor da peça deve ser um número positivo."
	msgTypeRequired  = "O tipo da peça é obrigatório."
	msgImageRequired = "A imagem da peça é obrigatória."
	msgImageInvalid  = "A imagem enviada não é válida (use JPEG ou PNG)."
)

func msgNameTaken(name string) string {
	return fmt.Sprintf("Já existe uma peça com o nome %q.", name)
}

// itemRules are the field rules every stored item must satisfy.
type itemRules struct {
	Name  string  `validate:"required"`
	Price float64 `validate:"gt=0"`
	Type  string  `validate:"required"`
}

var ruleMessages = map[string]string{
	"Name.required": msgNameRequired,
	"Price.gt":      msgPricePositive,
	"Type.required": msgTypeRequired,
}

// check returns one message per broken rule, in field order.
func (s *Service) check(rules itemRules) []string {
	err := s.validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := ruleMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("Campo %s inválido.", fe.Field())
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
