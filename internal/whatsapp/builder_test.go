package whatsapp

import (
	"testing"
)

func TestTemplateNameNormalization(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Promo Blast", "promo_blast"},
		{"WELCOME", "welcome"},
		{"black friday 2026", "black_friday_2026"},
		{"already_normal", "already_normal"},
	}
	for _, tc := range cases {
		if got := NormalizeTemplateName(tc.in); got != tc.want {
			t.Fatalf("normalize %q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestBuilderStartsWithBodyOnly(t *testing.T) {
	b := NewTemplateBuilder()
	components := b.Components()
	if len(components) != 1 || components[0].Type != ComponentBody {
		t.Fatalf("expected a single BODY component, got %v", components)
	}
}

func TestBuilderRejectsDuplicateComponents(t *testing.T) {
	b := NewTemplateBuilder()

	if err := b.AddHeader("Hello"); err != nil {
		t.Fatalf("first header failed: %v", err)
	}
	before := len(b.Components())
	if err := b.AddHeader("Hello again"); err == nil {
		t.Fatalf("expected second header to be rejected")
	}
	if len(b.Components()) != before {
		t.Fatalf("rejected add must leave components unchanged")
	}

	if err := b.AddFooter("Bye"); err != nil {
		t.Fatalf("first footer failed: %v", err)
	}
	if err := b.AddFooter("Bye again"); err == nil {
		t.Fatalf("expected second footer to be rejected")
	}

	if err := b.AddButtons(); err != nil {
		t.Fatalf("first buttons failed: %v", err)
	}
	if err := b.AddButtons(); err == nil {
		t.Fatalf("expected second buttons to be rejected")
	}
}

func TestBuilderRejectsFourthButton(t *testing.T) {
	b := NewTemplateBuilder()
	if err := b.AddButtons(); err != nil {
		t.Fatalf("add buttons failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := b.AddButton(TemplateButton{Type: ButtonURL, Text: "Visit", URL: "https://example.com"})
		if err != nil {
			t.Fatalf("button %d failed: %v", i+1, err)
		}
	}
	err := b.AddButton(TemplateButton{Type: ButtonPhoneNumber, Text: "Call", PhoneNumber: "+15551234567"})
	if err == nil {
		t.Fatalf("expected 4th button to be rejected")
	}

	for _, component := range b.Components() {
		if component.Type == ComponentButtons && len(component.Buttons) != 3 {
			t.Fatalf("expected 3 buttons after rejection, got %d", len(component.Buttons))
		}
	}
}

func TestBuilderButtonTyping(t *testing.T) {
	b := NewTemplateBuilder()
	if err := b.AddButtons(); err != nil {
		t.Fatalf("add buttons failed: %v", err)
	}

	if err := b.AddButton(TemplateButton{Type: ButtonURL, Text: "Visit"}); err == nil {
		t.Fatalf("expected url button without url to be rejected")
	}
	if err := b.AddButton(TemplateButton{Type: ButtonPhoneNumber, Text: "Call"}); err == nil {
		t.Fatalf("expected phone button without number to be rejected")
	}
	if err := b.AddButton(TemplateButton{Type: "QUICK_REPLY", Text: "Hi"}); err == nil {
		t.Fatalf("expected unknown button type to be rejected")
	}
}

func TestBuilderBodyCannotBeRemoved(t *testing.T) {
	b := NewTemplateBuilder()
	if err := b.RemoveComponent(ComponentBody); err == nil {
		t.Fatalf("expected body removal to be rejected")
	}

	if err := b.AddHeader("Hi"); err != nil {
		t.Fatalf("add header failed: %v", err)
	}
	if err := b.RemoveComponent(ComponentHeader); err != nil {
		t.Fatalf("header removal failed: %v", err)
	}
	if err := b.RemoveComponent(ComponentHeader); err == nil {
		t.Fatalf("expected removing an absent component to fail")
	}
}

func TestBuildRejectsEmptyBody(t *testing.T) {
	b := NewTemplateBuilder()
	b.SetName("Promo Blast")
	if err := b.SetCategory(CategoryMarketing); err != nil {
		t.Fatalf("set category failed: %v", err)
	}

	if _, err := b.Build(); err == nil {
		t.Fatalf("expected build with empty body to fail")
	}

	// state preserved for correction
	if b.Name() != "promo_blast" {
		t.Fatalf("failed build must keep the name, got %q", b.Name())
	}
	b.SetBodyText("Big sale this week only")
	def, err := b.Build()
	if err != nil {
		t.Fatalf("build failed after correction: %v", err)
	}
	if def.Name != "promo_blast" || def.Category != CategoryMarketing {
		t.Fatalf("unexpected definition %+v", def)
	}
}

func TestBuildRejectsEmptyName(t *testing.T) {
	b := NewTemplateBuilder()
	b.SetBodyText("hello")
	if _, err := b.Build(); err == nil {
		t.Fatalf("expected build without a name to fail")
	}
}

func TestBuilderRejectsUnknownCategory(t *testing.T) {
	b := NewTemplateBuilder()
	if err := b.SetCategory("SPAM"); err == nil {
		t.Fatalf("expected unknown category to be rejected")
	}
	if b.Category() != CategoryMarketing {
		t.Fatalf("rejected category must not change the builder")
	}
}

func TestBuilderReset(t *testing.T) {
	b := NewTemplateBuilder()
	b.SetName("promo")
	b.SetBodyText("hello")
	if err := b.AddHeader("hi"); err != nil {
		t.Fatalf("add header failed: %v", err)
	}

	b.Reset()
	if b.Name() != "" {
		t.Fatalf("reset must clear the name")
	}
	components := b.Components()
	if len(components) != 1 || components[0].Type != ComponentBody || components[0].Text != "" {
		t.Fatalf("reset must restore the single empty BODY shape, got %v", components)
	}
}
