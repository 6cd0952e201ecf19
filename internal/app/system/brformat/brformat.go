// Package brformat renders Brazilian display formats: BRL currency, dates,
// CPF/CNPJ document masks, and phone masks.
package brformat

import (
	"fmt"
	"strings"
	"time"
)

// Currency formats centavos as "R$ 1.234,56".
func Currency(cents int64) string {
	sign, magnitude := splitSign(cents)
	return sign + "R$ " + magnitude
}

// Amount formats centavos as "1.234,56" without the currency symbol, matching
// the {amount} placeholder in reminder templates.
func Amount(cents int64) string {
	sign, magnitude := splitSign(cents)
	return sign + magnitude
}

func splitSign(cents int64) (sign, magnitude string) {
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	intPart := groupThousands(fmt.Sprintf("%d", cents/100))
	return sign, fmt.Sprintf("%s,%02d", intPart, cents%100)
}

// Date formats a time as dd/mm/yyyy.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

// CpfCnpj masks a digits-only document as CPF (000.000.000-00) when it has
// 11 digits or fewer, CNPJ (00.000.000/0000-00) otherwise. Inputs that do
// not have a full document's worth of digits are returned as-is.
func CpfCnpj(digits string) string {
	if len(digits) <= 11 {
		if len(digits) != 11 {
			return digits
		}
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	}
	if len(digits) != 14 {
		return digits
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}

// Phone masks a digits-only national number as (00) 0000-0000 for landlines
// or (00) 00000-0000 for mobiles. Other lengths are returned as-is.
func Phone(digits string) string {
	switch len(digits) {
	case 10:
		return "(" + digits[0:2] + ") " + digits[2:6] + "-" + digits[6:10]
	case 11:
		return "(" + digits[0:2] + ") " + digits[2:7] + "-" + digits[7:11]
	}
	return digits
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
