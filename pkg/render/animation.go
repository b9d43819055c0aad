package render

import "pattern-atlas-service/internal/models"

// Delay returns the entrance delay in seconds of the element at index in its list
func Delay(timing models.AnimationTiming, index int) float64 {
	if index < 0 {
		index = 0
	}
	return timing.Delay + float64(index)*timing.Stagger
}

// CSSEasing maps an easing name to a CSS timing function.
// Unknown names fall back to "ease".
func CSSEasing(ease string) string {
	switch ease {
	case "easeOut", "ease-out":
		return "ease-out"
	case "easeIn", "ease-in":
		return "ease-in"
	case "easeInOut", "ease-in-out":
		return "ease-in-out"
	case "linear":
		return "linear"
	case "":
		return "ease-out"
	default:
		return "ease"
	}
}
