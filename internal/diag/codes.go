package diag

import (
	"fmt"
	"strconv"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Связывание (Binder, каталог символов)
	BindInfo                    Code = 1000
	BindCallableNotFound        Code = 1001
	BindBadParameter            Code = 1002
	BindInvalidParamFailedRegex Code = 1003
	BindImplementableNotFound   Code = 1004
	BindInvalidAttributeValue   Code = 1005
	BindAmbiguousImport         Code = 1006

	// Экранирование
	EscInfo             Code = 3000
	EscTypeError        Code = 3001
	EscUntranslatable   Code = 3002
	EscMissingMsgSchema Code = 3003

	// Сообщения и плейсхолдеры
	MsgInfo                       Code = 4000
	MsgBadNodePlacement           Code = 4001
	MsgTooManyDynamicPlaceholders Code = 4002
	MsgEphMissingPh               Code = 4003
	MsgPhMissingEph               Code = 4004
	MsgEmptyPlaceholder           Code = 4005
	MsgPlaceholderRequiresExample Code = 4006
	MsgInvalidMessage             Code = 4007

	// Валидация
	ValInfo                        Code = 5000
	ValDuplicateParameterName      Code = 5001
	ValTooManyContentParameters    Code = 5002
	ValInterfaceParamHasDefault    Code = 5003
	ValInterfaceParamHasCtor       Code = 5004
	ValRequiredAttributeHasCond    Code = 5005
	ValInvalidAttrBundle           Code = 5006
	ValDuplicateAttribute          Code = 5007
	ValUnknownAttribute            Code = 5008
	ValMismatchedAttrValidators    Code = 5009
	ValMissingAttribute            Code = 5010
	ValSchemaMismatch              Code = 5011
	ValNumParamsMismatch           Code = 5012
	ValParamNameMismatch           Code = 5013
	ValParamTypeMismatch           Code = 5014
	ValParamDefaultMismatch        Code = 5015
	ValParamConstructorMismatch    Code = 5016
	ValTemplateParamWithHasDefault Code = 5017
	ValTemplateParamWithHasCtor    Code = 5018

	// Драйвер, ввод-вывод, внутренние ошибки
	DrvInfo          Code = 6000
	DrvInternalError Code = 6001
	DrvUnitLoad      Code = 6002
	DrvUnitSyntax    Code = 6003
	DrvSchemaLoad    Code = 6004
	DrvDuplicateUnit Code = 6005
	DrvNameMismatch  Code = 6006
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                    "Unknown error",
		BindInfo:                       "Binder information",
		BindCallableNotFound:           "Callable not found",
		BindBadParameter:               "Unknown parameter",
		BindInvalidParamFailedRegex:    "Parameter value does not match its regex",
		BindImplementableNotFound:      "Implementable not found",
		BindInvalidAttributeValue:      "Invalid attribute value",
		BindAmbiguousImport:            "Ambiguous import",
		EscInfo:                        "Escaper information",
		EscTypeError:                   "Schema mismatch",
		EscUntranslatable:              "Untranslatable message schema",
		EscMissingMsgSchema:            "Missing message schema",
		MsgInfo:                        "Message extraction information",
		MsgBadNodePlacement:            "Node not allowed here",
		MsgTooManyDynamicPlaceholders:  "Too many dynamic placeholders",
		MsgEphMissingPh:                "End placeholder without start",
		MsgPhMissingEph:                "Placeholder without end",
		MsgEmptyPlaceholder:            "Empty placeholder",
		MsgPlaceholderRequiresExample:  "Placeholder requires example",
		MsgInvalidMessage:              "Invalid message",
		ValInfo:                        "Validator information",
		ValDuplicateParameterName:      "Duplicate parameter name",
		ValTooManyContentParameters:    "Too many content parameters",
		ValInterfaceParamHasDefault:    "Interface parameter has default value",
		ValInterfaceParamHasCtor:       "Interface parameter has constructor",
		ValRequiredAttributeHasCond:    "Required attribute is conditional",
		ValInvalidAttrBundle:           "Invalid attribute bundle",
		ValDuplicateAttribute:          "Duplicate attribute",
		ValUnknownAttribute:            "Unknown attribute",
		ValMismatchedAttrValidators:    "Mismatched attribute validators",
		ValMissingAttribute:            "Missing attribute",
		ValSchemaMismatch:              "Implemented interface schema mismatch",
		ValNumParamsMismatch:           "Implemented interface parameter count mismatch",
		ValParamNameMismatch:           "Implemented interface parameter name mismatch",
		ValParamTypeMismatch:           "Implemented interface parameter type mismatch",
		ValParamDefaultMismatch:        "Implemented interface default mismatch",
		ValParamConstructorMismatch:    "Implemented interface constructor mismatch",
		ValTemplateParamWithHasDefault: "has-default is only allowed on interfaces",
		ValTemplateParamWithHasCtor:    "has-constructor is only allowed on interfaces",
		DrvInfo:                        "Driver information",
		DrvInternalError:               "Internal compiler error",
		DrvUnitLoad:                    "Cannot load compilation unit",
		DrvUnitSyntax:                  "Malformed compilation unit",
		DrvSchemaLoad:                  "Cannot load schema",
		DrvDuplicateUnit:               "Template defined by more than one unit",
		DrvNameMismatch:                "Unit file name does not match its template",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("ESC%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MSG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts either the textual ID ("VAL5010") or the bare number.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	digits := strings.TrimLeft(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return UnknownCode, fmt.Errorf("invalid diagnostic code %q: %w", s, err)
	}
	c := Code(n)
	if _, ok := codeDescription[c]; !ok {
		return UnknownCode, fmt.Errorf("unknown diagnostic code %q", s)
	}
	if digits != s && c.ID() != s {
		return UnknownCode, fmt.Errorf("diagnostic code %q has wrong prefix, expected %s", s, c.ID())
	}
	return c, nil
}
