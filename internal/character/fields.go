package character

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown character field")
	ErrFieldArity   = errors.New("wrong number of values for field")
)

// AppearanceField names one settable attribute of Appearance.
type AppearanceField int

const (
	Height AppearanceField = iota
	Build
	HairColor
	HairStyle
	EyeColor
	SkinTone
	DistinguishingFeatures
	Age
)

var appearanceNames = [...]string{
	Height:                 "height",
	Build:                  "build",
	HairColor:              "hair_color",
	HairStyle:              "hair_style",
	EyeColor:               "eye_color",
	SkinTone:               "skin_tone",
	DistinguishingFeatures: "distinguishing_features",
	Age:                    "age",
}

func (f AppearanceField) String() string {
	if f < 0 || int(f) >= len(appearanceNames) {
		return fmt.Sprintf("AppearanceField(%d)", int(f))
	}
	return appearanceNames[f]
}

// ParseAppearanceField resolves a snake_case attribute name.
func ParseAppearanceField(name string) (AppearanceField, error) {
	for i, n := range appearanceNames {
		if n == strings.TrimSpace(name) {
			return AppearanceField(i), nil
		}
	}
	return 0, fmt.Errorf("%w: appearance attribute %q", ErrUnknownField, name)
}

// Set assigns values to field. List fields take any number of values, the
// others exactly one.
func (a *Appearance) Set(field AppearanceField, values ...string) error {
	if field == DistinguishingFeatures {
		a.DistinguishingFeatures = append([]string(nil), values...)
		return nil
	}
	var dst *string
	switch field {
	case Height:
		dst = &a.Height
	case Build:
		dst = &a.Build
	case HairColor:
		dst = &a.HairColor
	case HairStyle:
		dst = &a.HairStyle
	case EyeColor:
		dst = &a.EyeColor
	case SkinTone:
		dst = &a.SkinTone
	case Age:
		dst = &a.Age
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if len(values) != 1 {
		return fmt.Errorf("%w: %s takes 1, got %d", ErrFieldArity, field, len(values))
	}
	*dst = values[0]
	return nil
}

// ClothingField names one settable attribute of Clothing.
type ClothingField int

const (
	Top ClothingField = iota
	Bottom
	Footwear
	Accessories
	Style
	ColorScheme
)

var clothingNames = [...]string{
	Top:         "top",
	Bottom:      "bottom",
	Footwear:    "footwear",
	Accessories: "accessories",
	Style:       "style",
	ColorScheme: "color_scheme",
}

func (f ClothingField) String() string {
	if f < 0 || int(f) >= len(clothingNames) {
		return fmt.Sprintf("ClothingField(%d)", int(f))
	}
	return clothingNames[f]
}

func ParseClothingField(name string) (ClothingField, error) {
	for i, n := range clothingNames {
		if n == strings.TrimSpace(name) {
			return ClothingField(i), nil
		}
	}
	return 0, fmt.Errorf("%w: clothing attribute %q", ErrUnknownField, name)
}

func (c *Clothing) Set(field ClothingField, values ...string) error {
	switch field {
	case Accessories:
		c.Accessories = append([]string(nil), values...)
		return nil
	case ColorScheme:
		c.ColorScheme = append([]string(nil), values...)
		return nil
	}
	var dst *string
	switch field {
	case Top:
		dst = &c.Top
	case Bottom:
		dst = &c.Bottom
	case Footwear:
		dst = &c.Footwear
	case Style:
		dst = &c.Style
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if len(values) != 1 {
		return fmt.Errorf("%w: %s takes 1, got %d", ErrFieldArity, field, len(values))
	}
	*dst = values[0]
	return nil
}
