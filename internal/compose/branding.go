package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukidney/docchat/internal/upstream"
)

// defaultAccent is used when an owner has no accent color configured.
const defaultAccent = "#2563eb"

// Branding is the per-owner theming applied to the widget via runtime style
// variables.
type Branding struct {
	OwnerName    string
	LogoURL      string
	ShowLogo     bool
	Accent       string
	AccentHover  string
	AccentShadow string
}

// BrandingFor derives widget theming from the primary document's owner.
// A nil owner (unrecognized slug) hides the logo entirely: branding is
// default-deny in a multi-tenant deployment.
func BrandingFor(info *upstream.OwnerInfo) Branding {
	if info == nil {
		return Branding{
			ShowLogo:     false,
			Accent:       defaultAccent,
			AccentHover:  darken(defaultAccent, 0.12),
			AccentShadow: shadow(defaultAccent),
		}
	}

	accent := info.AccentColor
	if _, _, _, ok := parseHex(accent); !ok {
		accent = defaultAccent
	}

	return Branding{
		OwnerName:    info.Name,
		LogoURL:      info.Logo,
		ShowLogo:     info.Logo != "",
		Accent:       accent,
		AccentHover:  darken(accent, 0.12),
		AccentShadow: shadow(accent),
	}
}

// parseHex parses #rgb or #rrggbb into channel values.
func parseHex(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return 0, 0, 0, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

// darken shifts a hex color toward black by factor (0..1), producing the
// hover shade.
func darken(hex string, factor float64) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	scale := func(c int) int {
		d := int(float64(c) * (1 - factor))
		if d < 0 {
			return 0
		}
		return d
	}
	return fmt.Sprintf("#%02x%02x%02x", scale(r), scale(g), scale(b))
}

// shadow produces a translucent rgba() of the accent used for focus rings
// and card shadows.
func shadow(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return "rgba(0, 0, 0, 0.25)"
	}
	return fmt.Sprintf("rgba(%d, %d, %d, 0.25)", r, g, b)
}
