/*
Package invoice extracts issuer and value hints from fiscal document text.

PURPOSE:
  When a worker attaches their monthly invoice the engine scans the
  document's text for the issuer's legal name and the total value. This is
  best effort: Brazilian fiscal documents (NFS-e, DANFE) vary wildly in
  layout, so extraction prefers matching the worker's registered company
  name over pattern guessing, and a failed scan yields sentinel values
  instead of an error. Extraction never blocks the attachment.
*/
package invoice

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinels reported when a field cannot be read from the document text.
const (
	IssuerUnknown = "not identified"
	IssuerScanned = "image-only document"
)

// Extraction is the best-effort result of scanning one document.
type Extraction struct {
	Issuer     string          `json:"issuer"`
	Value      decimal.Decimal `json:"value"`
	ValueFound bool            `json:"valueFound"`
}

var (
	// issuerRe captures the name after a "Nome/Razão Social" label, up to
	// the next address or tax-id label.
	issuerRe = regexp.MustCompile(`(?i)Nome/Razão\s*Social.*?[:.]?\s*(.*?)\s*(?:Endereço|CPF|CNPJ)`)

	// valueRe captures the amount after any of the usual total labels.
	valueRe = regexp.MustCompile(`(?i)Valor\s*(?:Total|Líquido|do\s*Serviço|da\s*Nota|da\s*Danfe|Aproximado).*?[:=]?\s*(?:R\$\s*)?([\d.,]+)`)

	leadingJunkRe = regexp.MustCompile(`^[^0-9A-Za-zÀ-Ú]+`)
)

// Extract scans document text for the issuer and total value.
//
// The issuer resolves by, in order: a case-insensitive match of the
// worker's registered company name anywhere in the text, then the
// "Nome/Razão Social" label pattern, then IssuerUnknown. Empty text (an
// image-only scan) yields IssuerScanned.
func Extract(text, expectedIssuer string) Extraction {
	if strings.TrimSpace(text) == "" {
		return Extraction{Issuer: IssuerScanned}
	}

	issuer := IssuerUnknown
	if expectedIssuer != "" && strings.Contains(strings.ToLower(text), strings.ToLower(expectedIssuer)) {
		issuer = expectedIssuer
	} else if m := issuerRe.FindStringSubmatch(text); m != nil {
		name := leadingJunkRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		if runes := []rune(name); len(runes) > 50 {
			name = string(runes[:50])
		}
		if name != "" {
			issuer = name
		}
	}

	out := Extraction{Issuer: issuer}
	if m := valueRe.FindStringSubmatch(text); m != nil {
		if v, ok := ParseAmount(m[1]); ok {
			out.Value = v
			out.ValueFound = true
		}
	}
	return out
}

// ParseAmount parses a Brazilian-formatted monetary string ("1.234,56")
// into a decimal. Dots are thousands separators, the comma is the decimal
// mark. Plain "1234.56" also parses, for documents printed that way.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ".") > 1 {
		// "1.234.567" with no comma: all dots are separators.
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := decimal.NewFromString(strings.Trim(s, "."))
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// FileName builds the canonical stored name for an attached invoice:
// FIRST_LAST_MM_YYYY.pdf, keeping only the first and last name tokens.
func FileName(fullName string, year int, month int) string {
	clean := nonNameRe.ReplaceAllString(strings.ToUpper(fullName), "")
	parts := strings.Fields(clean)

	first := "WORKER"
	if len(parts) > 0 {
		first = parts[0]
	}
	name := first
	if len(parts) > 1 {
		name = first + "_" + parts[len(parts)-1]
	}
	return fmt.Sprintf("%s_%02d_%d.pdf", name, month, year)
}

var nonNameRe = regexp.MustCompile(`[^A-Z0-9 ]`)
