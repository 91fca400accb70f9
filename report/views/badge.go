package views

import "strings"

type BadgeVariant string

const (
	BadgeVariantSecondary BadgeVariant = "secondary"
	BadgeVariantSuccess   BadgeVariant = "success"
	BadgeVariantWarning   BadgeVariant = "warning"
	BadgeVariantError     BadgeVariant = "error"
	BadgeVariantOutline   BadgeVariant = "outline"
)

type BadgeProps struct {
	Variant BadgeVariant
	Class   string
}

// statusVariant maps a report status name to a badge look.
func statusVariant(status string) BadgeVariant {
	switch status {
	case "pass":
		return BadgeVariantSuccess
	case "fail":
		return BadgeVariantError
	case "warning":
		return BadgeVariantWarning
	case "skip":
		return BadgeVariantOutline
	default:
		return BadgeVariantSecondary
	}
}

func badgeClasses(props BadgeProps) string {
	classes := []string{"badge"}

	switch props.Variant {
	case BadgeVariantSecondary, BadgeVariantSuccess, BadgeVariantWarning, BadgeVariantError, BadgeVariantOutline:
		classes = append(classes, "badge-"+string(props.Variant))
	default:
		classes = append(classes, "badge-default")
	}

	if props.Class != "" {
		classes = append(classes, props.Class)
	}

	return strings.Join(classes, " ")
}
