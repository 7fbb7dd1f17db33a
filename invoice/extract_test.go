package invoice_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fieldcrew/rd-engine/invoice"
)

// =============================================================================
// ISSUER EXTRACTION
// =============================================================================

func TestExtract_RegisteredCompanyNameWins(t *testing.T) {
	// GIVEN: Document text containing the worker's registered company name
	//        in a different case, plus a Razão Social label naming someone else
	// WHEN: Extracting
	// THEN: The registered name wins over the label pattern

	text := "NFS-e\nNome/Razão Social: Outra Empresa ME CNPJ 00.000.000/0001-00\n" +
		"Prestador: ACME SERVICOS LTDA\nValor Total: R$ 1.500,00"

	got := invoice.Extract(text, "Acme Servicos Ltda")
	if got.Issuer != "Acme Servicos Ltda" {
		t.Errorf("expected the registered name, got %q", got.Issuer)
	}
}

func TestExtract_RazaoSocialFallback(t *testing.T) {
	// GIVEN: Text without the registered name but with the standard label
	// WHEN: Extracting
	// THEN: The name between the label and the next tax-id label is captured

	text := "Nome/Razão Social: Construtora Horizonte Ltda CNPJ 11.222.333/0001-44"
	got := invoice.Extract(text, "Acme Servicos Ltda")
	if got.Issuer != "Construtora Horizonte Ltda" {
		t.Errorf("expected Construtora Horizonte Ltda, got %q", got.Issuer)
	}
}

func TestExtract_IssuerCappedAtFiftyRunes(t *testing.T) {
	long := strings.Repeat("A", 80)
	text := "Nome/Razão Social: " + long + " CNPJ 11.222.333/0001-44"
	got := invoice.Extract(text, "")
	if len(got.Issuer) != 50 {
		t.Errorf("expected a 50-char cap, got %d chars", len(got.Issuer))
	}
}

func TestExtract_IssuerCapDoesNotSplitRunes(t *testing.T) {
	// GIVEN: An overlong accented issuer name whose 50th byte falls inside
	//        a multi-byte rune
	// WHEN: Extracting
	// THEN: The cap counts runes and the result stays valid UTF-8

	long := strings.Repeat("Ã", 60)
	text := "Nome/Razão Social: " + long + " CNPJ 11.222.333/0001-44"
	got := invoice.Extract(text, "")
	if !utf8.ValidString(got.Issuer) {
		t.Fatalf("truncated issuer is not valid UTF-8: %q", got.Issuer)
	}
	if n := utf8.RuneCountInString(got.Issuer); n != 50 {
		t.Errorf("expected 50 runes, got %d", n)
	}
}

func TestExtract_Sentinels(t *testing.T) {
	// Empty text is an image-only scan; text without any recognizable
	// label is simply not identified. Neither is an error.
	if got := invoice.Extract("", "Acme"); got.Issuer != invoice.IssuerScanned {
		t.Errorf("expected %q for empty text, got %q", invoice.IssuerScanned, got.Issuer)
	}
	if got := invoice.Extract("   \n  ", "Acme"); got.Issuer != invoice.IssuerScanned {
		t.Errorf("expected %q for blank text, got %q", invoice.IssuerScanned, got.Issuer)
	}

	got := invoice.Extract("recibo avulso sem identificacao", "Acme")
	if got.Issuer != invoice.IssuerUnknown {
		t.Errorf("expected %q, got %q", invoice.IssuerUnknown, got.Issuer)
	}
	if got.ValueFound {
		t.Error("no value should be found")
	}
}

// =============================================================================
// VALUE EXTRACTION
// =============================================================================

func TestExtract_ValueLabels(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"valor total", "Valor Total: R$ 10.000,00", "10000.00"},
		{"valor liquido", "Valor Líquido da nota = 1.234,56", "1234.56"},
		{"valor do servico", "VALOR DO SERVIÇO R$ 850,00", "850.00"},
		{"valor da danfe", "Valor da DANFE: 99,90", "99.90"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := invoice.Extract(tc.text, "")
			if !got.ValueFound {
				t.Fatal("expected a value")
			}
			if got.Value.StringFixed(2) != tc.want {
				t.Errorf("got %s, want %s", got.Value.StringFixed(2), tc.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.234,56", "1234.56", true},
		{"10.000,00", "10000.00", true},
		{"99,90", "99.90", true},
		{"1234.56", "1234.56", true}, // already dotted decimal
		{"1.234.567", "1234567.00", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, ok := invoice.ParseAmount(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseAmount(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got.StringFixed(2) != tc.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got.StringFixed(2), tc.want)
		}
	}
}

// =============================================================================
// CANONICAL FILE NAME
// =============================================================================

func TestFileName(t *testing.T) {
	cases := []struct {
		name  string
		full  string
		year  int
		month int
		want  string
	}{
		{"first and last", "Maria Souza Lima", 2026, 3, "MARIA_LIMA_03_2026.pdf"},
		{"single name", "Madonna", 2026, 12, "MADONNA_12_2026.pdf"},
		{"accents stripped", "João da Silva", 2026, 3, "JOO_SILVA_03_2026.pdf"},
		{"empty name", "", 2025, 7, "WORKER_07_2025.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := invoice.FileName(tc.full, tc.year, tc.month); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
