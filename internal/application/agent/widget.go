package agent

// ColorScheme is the storefront's active color scheme
type ColorScheme string

const (
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"
)

// Variant is the widget layout variant
type Variant string

const (
	// VariantExpandable is the collapsed mobile layout
	VariantExpandable Variant = "expandable"
	// VariantFull is the desktop layout
	VariantFull Variant = "full"
)

// OrbColors are the avatar orb gradient stops for a color scheme
type OrbColors struct {
	Color1 string `json:"color1"`
	Color2 string `json:"color2"`
}

// orbColorsFor returns the orb colors matching the page color scheme.
// Anything that is not explicitly light renders as dark.
func orbColorsFor(scheme ColorScheme) OrbColors {
	if scheme == ColorSchemeLight {
		return OrbColors{Color1: "#4D9CFF", Color2: "#9CE6E6"}
	}
	return OrbColors{Color1: "#2E2E2E", Color2: "#B8B8B8"}
}

// variantFor returns the layout variant for a viewport width.
func variantFor(viewportWidth, mobileBreakpoint int) Variant {
	if viewportWidth > 0 && viewportWidth <= mobileBreakpoint {
		return VariantExpandable
	}
	return VariantFull
}

// WidgetConfig is everything the page needs to mount the voice widget.
type WidgetConfig struct {
	AgentID          string            `json:"agentId"`
	ScriptURL        string            `json:"scriptUrl"`
	Variant          Variant           `json:"variant"`
	OrbColors        OrbColors         `json:"orbColors"`
	TermsHTML        string            `json:"termsHtml"`
	DynamicVariables map[string]string `json:"dynamicVariables,omitempty"`
}

// termsHTML is the consent notice rendered into the widget's terms slot.
const termsHTML = `<form slot="terms" class="prose text-sm">
  <h3>Terms and conditions</h3>
  <p>
    By clicking "Continue," and each time I interact with this AI agent, I
    consent to the collection and use of my voice and data derived from it to
    interpret my speech and provide the support services I request, and to the
    recording, storage, and sharing of my communications with third-party
    service providers, as described in the
    <a href="/terms-of-use">Privacy Policy</a>. If you do not wish to have
    your conversations recorded, please refrain from using this service.
  </p>
</form>`

// previousConversationContext is the dynamic variable seeded when the session
// already held a conversation, so the agent can pick the thread back up.
const previousConversationContext = `Agent: "Hi! How can I help you today?" ` +
	`Visitor: "I was looking at merch for our event earlier." ` +
	`Agent: "Right, we talked about caps and totes. Want to continue where we left off?"`
