package views

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format controls how card values are rendered.
//
// Digit grouping follows Language (English groups thousands with ","), and
// the currency symbol is prefixed verbatim. Amounts are whole units; no
// decimals are printed.
type Format struct {
	Language       language.Tag
	CurrencySymbol string
}

// DefaultFormat renders "$2,500" style values.
func DefaultFormat() Format {
	return Format{Language: language.English, CurrencySymbol: "$"}
}

// ParseFormat builds a Format from a BCP 47 tag such as "en-US" or "de".
func ParseFormat(locale, currency string) (Format, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Format{}, err
	}
	return Format{Language: tag, CurrencySymbol: currency}, nil
}

type formatter struct {
	p      *message.Printer
	symbol string
}

func newFormatter(f Format) formatter {
	return formatter{p: message.NewPrinter(f.Language), symbol: f.CurrencySymbol}
}

// Integer groups digits: 1234 -> "1,234".
func (f formatter) Integer(n int64) string {
	return f.p.Sprintf("%d", n)
}

// Currency prefixes the symbol and keeps the sign in front: -1234 -> "-$1,234".
func (f formatter) Currency(n int64) string {
	if n < 0 {
		return "-" + f.symbol + f.p.Sprintf("%d", -n)
	}
	return f.symbol + f.p.Sprintf("%d", n)
}

// Percent rounds to a whole percent: 12.4 -> "12%".
func (f formatter) Percent(v float64) string {
	return f.p.Sprintf("%d%%", int64(math.Round(v)))
}
