package replies

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryKeyHasEnglish(t *testing.T) {
	for k, byLang := range templates {
		assert.NotEmpty(t, byLang["en"], k)
	}
}

func TestTranslationsKeepVerbCount(t *testing.T) {
	for k, byLang := range templates {
		want := strings.Count(byLang["en"], "%")
		for lang, tpl := range byLang {
			assert.Equal(t, want, strings.Count(tpl, "%"), "%s/%s", k, lang)
		}
	}
}

func TestRenderFallsBackToEnglish(t *testing.T) {
	got := Render("ta", OrderPlaced, "ORD-1", "Omega-3", 2, "₹", 30.0)
	assert.Equal(t, "Order placed successfully! Order ID: ORD-1, Omega-3 x 2, Total price: ₹30.00", got)
}

func TestRenderHindi(t *testing.T) {
	got := Render("hi", Cancelled)
	assert.Contains(t, got, "रद्द")
}

func TestBullets(t *testing.T) {
	assert.Equal(t, "• a\n• b", Bullets([]string{"a", "b"}))
	assert.Equal(t, "", Bullets(nil))
}
