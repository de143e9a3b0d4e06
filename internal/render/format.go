package render

import (
	"fmt"
	"math"
	"time"

	"github.com/Rhymond/go-money"
)

// RelativeDate describes how long ago t was, counted in whole days rounded up.
func RelativeDate(t, now time.Time) string {
	days := int(math.Ceil(math.Abs(now.Sub(t).Hours()) / 24))

	switch {
	case days == 1:
		return "há 1 dia"
	case days < 7:
		return fmt.Sprintf("há %d dias", days)
	case days < 30:
		weeks := days / 7
		if weeks > 1 {
			return fmt.Sprintf("há %d semanas", weeks)
		}
		return "há 1 semana"
	}
	months := days / 30
	if months > 1 {
		return fmt.Sprintf("há %d meses", months)
	}
	return "há 1 mês"
}

// FormatSalaryAmount renders a numeric salary as Brazilian reais.
func FormatSalaryAmount(amount float64) string {
	return money.NewFromFloat(amount, money.BRL).Display()
}
