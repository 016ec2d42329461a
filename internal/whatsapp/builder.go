package whatsapp

import (
	"fmt"
	"strings"
)

// Template categories accepted by the Cloud API.
const (
	CategoryMarketing      = "MARKETING"
	CategoryUtility        = "UTILITY"
	CategoryAuthentication = "AUTHENTICATION"
)

// Component types. A template has exactly one BODY, at most one HEADER, one
// FOOTER and one BUTTONS component.
const (
	ComponentHeader  = "HEADER"
	ComponentBody    = "BODY"
	ComponentFooter  = "FOOTER"
	ComponentButtons = "BUTTONS"
)

// Button types.
const (
	ButtonURL         = "URL"
	ButtonPhoneNumber = "PHONE_NUMBER"
)

const maxButtons = 3

// TemplateBuilder assembles a template definition while keeping its
// structural invariants true at every step: the add operations reject any
// change that would produce an invalid shape, so Build only has to check
// required text.
type TemplateBuilder struct {
	name       string
	language   string
	category   string
	components []TemplateComponent
}

// NewTemplateBuilder starts a builder with the mandatory empty BODY
// component already in place.
func NewTemplateBuilder() *TemplateBuilder {
	return &TemplateBuilder{
		language:   "en_US",
		category:   CategoryMarketing,
		components: []TemplateComponent{{Type: ComponentBody}},
	}
}

// NormalizeTemplateName applies the Cloud API naming rules: lower case with
// underscores instead of spaces. Applied on every input, not at submit time.
func NormalizeTemplateName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// SetName stores the normalized template name.
func (b *TemplateBuilder) SetName(name string) {
	b.name = NormalizeTemplateName(name)
}

func (b *TemplateBuilder) Name() string {
	return b.name
}

func (b *TemplateBuilder) SetLanguage(code string) {
	b.language = code
}

func (b *TemplateBuilder) SetCategory(category string) error {
	switch category {
	case CategoryMarketing, CategoryUtility, CategoryAuthentication:
		b.category = category
		return nil
	}
	return fmt.Errorf("unknown template category %q", category)
}

func (b *TemplateBuilder) Category() string {
	return b.category
}

// Components returns a copy of the current component list.
func (b *TemplateBuilder) Components() []TemplateComponent {
	out := make([]TemplateComponent, len(b.components))
	copy(out, b.components)
	return out
}

func (b *TemplateBuilder) find(componentType string) *TemplateComponent {
	for i := range b.components {
		if b.components[i].Type == componentType {
			return &b.components[i]
		}
	}
	return nil
}

// SetBodyText updates the BODY component, which always exists.
func (b *TemplateBuilder) SetBodyText(text string) {
	b.find(ComponentBody).Text = text
}

// AddHeader adds a text HEADER. Adding a second header is rejected and
// leaves the component list unchanged.
func (b *TemplateBuilder) AddHeader(text string) error {
	if b.find(ComponentHeader) != nil {
		return fmt.Errorf("template already has a header")
	}
	b.components = append(b.components, TemplateComponent{
		Type:   ComponentHeader,
		Format: "TEXT",
		Text:   text,
	})
	return nil
}

// AddFooter adds a FOOTER, rejected when one already exists.
func (b *TemplateBuilder) AddFooter(text string) error {
	if b.find(ComponentFooter) != nil {
		return fmt.Errorf("template already has a footer")
	}
	b.components = append(b.components, TemplateComponent{
		Type: ComponentFooter,
		Text: text,
	})
	return nil
}

// AddButtons adds the BUTTONS component, rejected when one already exists.
// Buttons themselves are added one at a time with AddButton.
func (b *TemplateBuilder) AddButtons() error {
	if b.find(ComponentButtons) != nil {
		return fmt.Errorf("template already has buttons")
	}
	b.components = append(b.components, TemplateComponent{Type: ComponentButtons})
	return nil
}

// AddButton appends one button to the BUTTONS component. Rejected when no
// BUTTONS component exists, when three buttons are already present, or when
// the button type is unknown.
func (b *TemplateBuilder) AddButton(button TemplateButton) error {
	buttons := b.find(ComponentButtons)
	if buttons == nil {
		return fmt.Errorf("add a buttons section first")
	}
	if len(buttons.Buttons) >= maxButtons {
		return fmt.Errorf("a template can have at most %d buttons", maxButtons)
	}
	switch button.Type {
	case ButtonURL:
		if button.URL == "" {
			return fmt.Errorf("url button requires a url")
		}
	case ButtonPhoneNumber:
		if button.PhoneNumber == "" {
			return fmt.Errorf("phone button requires a phone number")
		}
	default:
		return fmt.Errorf("unknown button type %q", button.Type)
	}
	buttons.Buttons = append(buttons.Buttons, button)
	return nil
}

// RemoveComponent drops a HEADER, FOOTER or BUTTONS component. BODY can
// never be removed.
func (b *TemplateBuilder) RemoveComponent(componentType string) error {
	if componentType == ComponentBody {
		return fmt.Errorf("the body component cannot be removed")
	}
	for i := range b.components {
		if b.components[i].Type == componentType {
			b.components = append(b.components[:i], b.components[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("template has no %s component", strings.ToLower(componentType))
}

// Build validates the remaining free-text requirements and returns the
// finished definition. The builder state is untouched either way so a failed
// submit can be corrected and retried.
func (b *TemplateBuilder) Build() (TemplateDefinition, error) {
	if b.name == "" {
		return TemplateDefinition{}, fmt.Errorf("template name is required")
	}
	if b.language == "" {
		return TemplateDefinition{}, fmt.Errorf("template language is required")
	}
	if body := b.find(ComponentBody); body.Text == "" {
		return TemplateDefinition{}, fmt.Errorf("template body is required")
	}

	return TemplateDefinition{
		Name:       b.name,
		Language:   b.language,
		Category:   b.category,
		Components: b.Components(),
	}, nil
}

// Reset returns the builder to the initial single-BODY shape, used after a
// successful submit.
func (b *TemplateBuilder) Reset() {
	b.name = ""
	b.language = "en_US"
	b.category = CategoryMarketing
	b.components = []TemplateComponent{{Type: ComponentBody}}
}
