package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/untoldecay/lorebook/internal/scaffold"
	"github.com/untoldecay/lorebook/internal/types"
)

// DraftForm asks for the fields of d that are still empty. locationTypes
// feeds the type selector; parents are the known location ids. It returns
// nil when nothing needs asking.
func DraftForm(d *scaffold.Draft, locationTypes, parents []string) *huh.Form {
	var fields []huh.Field

	if d.Name == "" {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Description("Display name (required)").
			Placeholder(d.ID).
			Value(&d.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}))
	}

	switch d.Kind {
	case types.KindCharacter:
		if d.Role == "" {
			fields = append(fields, huh.NewInput().
				Title("Role").
				Description("Occupation or function (optional)").
				Value(&d.Role))
		}
	case types.KindLocation:
		if d.Type == "" && len(locationTypes) > 0 {
			fields = append(fields, huh.NewSelect[string]().
				Title("Type").
				Description("Location type from the vocabulary").
				Options(huh.NewOptions(locationTypes...)...).
				Value(&d.Type))
		}
		if d.ParentID == "" && len(parents) > 0 {
			options := append([]huh.Option[string]{huh.NewOption("(none, this is a root)", "")}, huh.NewOptions(parents...)...)
			fields = append(fields, huh.NewSelect[string]().
				Title("Parent").
				Description("Containing location").
				Options(options...).
				Height(10).
				Value(&d.ParentID))
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
}
