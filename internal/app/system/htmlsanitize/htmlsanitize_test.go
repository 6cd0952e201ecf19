package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dmoreira/cobrafacil/internal/app/system/htmlsanitize"
)

func TestStrip_Empty(t *testing.T) {
	if got := htmlsanitize.Strip(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestStrip_PlainTextUnchanged(t *testing.T) {
	if got := htmlsanitize.Strip("Olá {clientName}!"); got != "Olá {clientName}!" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestStrip_RemovesScript(t *testing.T) {
	got := htmlsanitize.Strip(`<script>alert("x")</script>Lembrete`)
	if strings.Contains(got, "script") {
		t.Errorf("expected script removed, got %q", got)
	}
	if !strings.Contains(got, "Lembrete") {
		t.Errorf("expected text preserved, got %q", got)
	}
}

func TestStrip_RemovesFormattingTags(t *testing.T) {
	got := htmlsanitize.Strip("<p><strong>Empresa</strong> <em>Demo</em></p>")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("expected all markup removed, got %q", got)
	}
	if !strings.Contains(got, "Empresa") || !strings.Contains(got, "Demo") {
		t.Errorf("expected text preserved, got %q", got)
	}
}
