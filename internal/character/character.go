// Package character keeps a character's look and state consistent across
// the scenes of a story.
package character

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrMissingName = errors.New("character name is required")

type Appearance struct {
	Height                 string   `json:"height" yaml:"height,omitempty"`
	Build                  string   `json:"build" yaml:"build,omitempty"`
	HairColor              string   `json:"hair_color" yaml:"hair_color,omitempty"`
	HairStyle              string   `json:"hair_style" yaml:"hair_style,omitempty"`
	EyeColor               string   `json:"eye_color" yaml:"eye_color,omitempty"`
	SkinTone               string   `json:"skin_tone" yaml:"skin_tone,omitempty"`
	DistinguishingFeatures []string `json:"distinguishing_features" yaml:"distinguishing_features,omitempty"`
	Age                    string   `json:"age" yaml:"age,omitempty"`
}

type Clothing struct {
	Top         string   `json:"top" yaml:"top,omitempty"`
	Bottom      string   `json:"bottom" yaml:"bottom,omitempty"`
	Footwear    string   `json:"footwear" yaml:"footwear,omitempty"`
	Accessories []string `json:"accessories" yaml:"accessories,omitempty"`
	Style       string   `json:"style" yaml:"style,omitempty"`
	ColorScheme []string `json:"color_scheme" yaml:"color_scheme,omitempty"`
}

// SceneState is free-form per-scene detail such as mood or action.
type SceneState map[string]string

type Character struct {
	Name          string                `json:"name" yaml:"name"`
	Appearance    Appearance            `json:"appearance" yaml:"appearance"`
	Clothing      Clothing              `json:"clothing" yaml:"clothing"`
	Personality   []string              `json:"personality" yaml:"personality,omitempty"`
	Background    string                `json:"background" yaml:"background,omitempty"`
	Relationships map[string]string     `json:"relationships" yaml:"relationships,omitempty"`
	SceneStates   map[string]SceneState `json:"scene_specific_states" yaml:"scene_specific_states,omitempty"`
}

func New(name string) *Character {
	return &Character{
		Name:          name,
		Personality:   []string{},
		Relationships: map[string]string{},
		SceneStates:   map[string]SceneState{},
	}
}

// UpdateAppearance applies named updates. Every name is checked before any
// field changes, so an unknown name leaves the character untouched.
func (c *Character) UpdateAppearance(updates map[string][]string) error {
	fields := make(map[AppearanceField][]string, len(updates))
	for name, values := range updates {
		f, err := ParseAppearanceField(name)
		if err != nil {
			return err
		}
		fields[f] = values
	}
	next := c.Appearance
	for f, values := range fields {
		if err := next.Set(f, values...); err != nil {
			return err
		}
	}
	c.Appearance = next
	return nil
}

// UpdateClothing is the Clothing counterpart of UpdateAppearance.
func (c *Character) UpdateClothing(updates map[string][]string) error {
	fields := make(map[ClothingField][]string, len(updates))
	for name, values := range updates {
		f, err := ParseClothingField(name)
		if err != nil {
			return err
		}
		fields[f] = values
	}
	next := c.Clothing
	for f, values := range fields {
		if err := next.Set(f, values...); err != nil {
			return err
		}
	}
	c.Clothing = next
	return nil
}

// AddTrait appends a personality trait unless already present.
func (c *Character) AddTrait(trait string) {
	if !slices.Contains(c.Personality, trait) {
		c.Personality = append(c.Personality, trait)
	}
}

func (c *Character) SetBackground(background string) {
	c.Background = background
}

func (c *Character) AddRelationship(name, relationship string) {
	if c.Relationships == nil {
		c.Relationships = map[string]string{}
	}
	c.Relationships[name] = relationship
}

// SetSceneState replaces the state recorded for sceneID.
func (c *Character) SetSceneState(sceneID string, state SceneState) {
	if c.SceneStates == nil {
		c.SceneStates = map[string]SceneState{}
	}
	c.SceneStates[sceneID] = state
}

func (c *Character) SceneState(sceneID string) (SceneState, bool) {
	s, ok := c.SceneStates[sceneID]
	return s, ok
}

// Describe renders a prose description for image prompts, including the
// state for sceneID when one is recorded. State keys are listed in sorted
// order.
func (c *Character) Describe(sceneID string) string {
	a, cl := c.Appearance, c.Clothing
	parts := []string{
		fmt.Sprintf("%s is a %s person with %s %s hair and %s eyes.", c.Name, a.Height, a.HairColor, a.HairStyle, a.EyeColor),
	}
	if len(a.DistinguishingFeatures) > 0 {
		parts = append(parts, fmt.Sprintf("They have %s.", strings.Join(a.DistinguishingFeatures, ", ")))
	}

	var wearing []string
	if cl.Top != "" {
		wearing = append(wearing, "wearing a "+cl.Top)
	}
	if cl.Bottom != "" {
		wearing = append(wearing, cl.Bottom)
	}
	if cl.Footwear != "" {
		wearing = append(wearing, cl.Footwear)
	}
	if len(wearing) > 0 {
		parts = append(parts, "They are "+strings.Join(wearing, " and ")+".")
	}
	if len(cl.Accessories) > 0 {
		parts = append(parts, fmt.Sprintf("Their accessories include %s.", strings.Join(cl.Accessories, ", ")))
	}

	if state, ok := c.SceneStates[sceneID]; ok && sceneID != "" {
		keys := make([]string, 0, len(state))
		for k := range state {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = k + ": " + state[k]
		}
		parts = append(parts, "In this scene: "+strings.Join(kv, ", "))
	}
	return strings.Join(parts, " ")
}

// MarshalIndent encodes the character as two-space indented JSON.
func (c *Character) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(c.normalized(), "", "  ")
}

// UnmarshalJSONStrict decodes a character, rejecting unknown attributes.
func UnmarshalJSONStrict(data []byte) (*Character, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Character
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode character: %w", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, ErrMissingName
	}
	return c.normalized(), nil
}

func UnmarshalYAMLStrict(data []byte) (*Character, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Character
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode character: %w", err)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, ErrMissingName
	}
	return c.normalized(), nil
}

// Load reads a character from a .json, .yaml or .yml file.
func Load(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return UnmarshalYAMLStrict(data)
	default:
		return UnmarshalJSONStrict(data)
	}
}

// Save writes the character to path, choosing YAML or JSON by extension.
func (c *Character) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c.normalized())
	default:
		data, err = c.MarshalIndent()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// normalized returns a copy with nil collections replaced by empty ones so
// JSON output always carries lists and objects.
func (c *Character) normalized() *Character {
	out := *c
	if out.Personality == nil {
		out.Personality = []string{}
	}
	if out.Relationships == nil {
		out.Relationships = map[string]string{}
	}
	if out.SceneStates == nil {
		out.SceneStates = map[string]SceneState{}
	}
	if out.Appearance.DistinguishingFeatures == nil {
		out.Appearance.DistinguishingFeatures = []string{}
	}
	if out.Clothing.Accessories == nil {
		out.Clothing.Accessories = []string{}
	}
	if out.Clothing.ColorScheme == nil {
		out.Clothing.ColorScheme = []string{}
	}
	return &out
}
