package valueobjects

import "fmt"

// Viewport is the client layout class used to size card previews
type Viewport string

const (
	ViewportNarrow Viewport = "narrow"
	ViewportWide   Viewport = "wide"
)

// ParseViewport parses a viewport name. An empty value means wide.
func ParseViewport(s string) (Viewport, error) {
	switch Viewport(s) {
	case "", ViewportWide:
		return ViewportWide, nil
	case ViewportNarrow:
		return ViewportNarrow, nil
	default:
		return "", fmt.Errorf("unknown viewport %q", s)
	}
}

// ViewportFromMobileHint maps a Sec-CH-UA-Mobile client hint ("?1" / "?0")
func ViewportFromMobileHint(hint string) Viewport {
	if hint == "?1" {
		return ViewportNarrow
	}
	return ViewportWide
}

// IsNarrow reports whether the viewport is narrow
func (v Viewport) IsNarrow() bool { return v == ViewportNarrow }

func (v Viewport) String() string { return string(v) }
