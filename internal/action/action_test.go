package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitNormalizesScheme(t *testing.T) {
	assert.Equal(t, "http://example.com", Visit("example.com").URL)
	assert.Equal(t, "http://localhost:8000", Visit("  localhost:8000 ").URL)
	assert.Equal(t, "https://example.com", Visit("https://example.com").URL)
	assert.Equal(t, "http://example.com", Visit("http://example.com").URL)
}

func TestConstructors(t *testing.T) {
	v := Visit("example.com")
	assert.Equal(t, KindVisit, v.Kind)
	assert.Equal(t, "Visit http://example.com", v.Description)

	c := Click("Login button")
	assert.Equal(t, KindClick, c.Kind)
	assert.Equal(t, "Click on Login button", c.Description)

	f := Fill("username field", "admin")
	assert.Equal(t, KindFill, f.Kind)
	assert.Equal(t, `Fill username field with "admin"`, f.Description)
	assert.Equal(t, "admin", f.Text)

	at := AssertText("welcome banner", "Welcome")
	assert.Equal(t, KindAssertText, at.Kind)
	assert.Equal(t, `Verify welcome banner contains text "Welcome"`, at.Description)

	av := AssertVisible("logout link")
	assert.Equal(t, "Verify logout link is visible", av.Description)

	ar := AssertRow(map[string]string{"id": "5"})
	assert.Equal(t, KindAssertRow, ar.Kind)
	assert.Equal(t, map[string]string{"id": "5"}, ar.ExpectedRow)
}

func TestValidate(t *testing.T) {
	valid := []Action{
		Visit("example.com"),
		Click("Login button"),
		Fill("username field", ""),
		Scroll("footer"),
		AssertVisible("banner"),
		AssertText("banner", "Welcome"),
		AssertRow(map[string]string{"id": "5"}),
	}
	for _, a := range valid {
		require.NoError(t, a.Validate(), "kind %s", a.Kind)
	}

	invalid := []Action{
		{Kind: KindVisit},
		{Kind: KindVisit, URL: "example.com"}, // scheme-less, bypassed constructor
		{Kind: KindClick},
		{Kind: KindFill, Text: "x"},
		{Kind: KindScroll, Element: "  "},
		{Kind: KindAssertVisible},
		{Kind: KindAssertText, Element: "banner"},
		{Kind: KindAssertRow},
		{Kind: Kind("teleport")},
	}
	for _, a := range invalid {
		assert.Error(t, a.Validate(), "kind %s", a.Kind)
	}
}

func TestResultIsFailure(t *testing.T) {
	assert.False(t, Result{Success: true, Message: "ok"}.IsFailure())
	assert.True(t, Result{Success: false, Message: "nope"}.IsFailure())
	assert.True(t, Result{Success: true, Error: "late failure"}.IsFailure())
}
