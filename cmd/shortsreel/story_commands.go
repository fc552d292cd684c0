package main

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shortsreel/internal/character"
	"github.com/ivlev/shortsreel/internal/enhancer"
	"github.com/ivlev/shortsreel/internal/geometry"
	"github.com/ivlev/shortsreel/internal/prompt"
	"github.com/ivlev/shortsreel/internal/script"
	"github.com/ivlev/shortsreel/internal/storyboard"
)

func newStoryCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newScenesCommand(),
		newPromptCommand(),
		newEnhanceCommand(ctx),
		newCharacterCommand(),
		newStoryboardCommand(ctx),
	}
}

func seededRand(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func newScenesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes [script]",
		Short: "List the scenes of a story script (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(path)
			if err != nil {
				return err
			}
			scenes, err := script.Parse(text)
			if err != nil {
				return err
			}
			rows := make([][]string, len(scenes))
			for i, s := range scenes {
				rows[i] = []string{
					strconv.Itoa(s.Number),
					strconv.Itoa(len(strings.Fields(s.Text))),
					excerpt(s.Text, 60),
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Scene", "Words", "Text"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
			return nil
		},
	}
}

func newPromptCommand() *cobra.Command {
	var scriptPath string
	var perCategory int
	var extra string
	var seed int64
	var copyOut bool

	cmd := &cobra.Command{
		Use:   "prompt [scene description]",
		Short: "Build image prompts for a scene or for every scene of a script",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := prompt.New(seededRand(seed))
			opts := prompt.Options{PerCategory: perCategory, Context: extra}

			var prompts []string
			if scriptPath != "" {
				text, err := readInput(scriptPath)
				if err != nil {
					return err
				}
				scenes, err := script.Parse(text)
				if err != nil {
					return err
				}
				for _, s := range scenes {
					p, err := gen.Generate(s.Text, opts)
					if errors.Is(err, prompt.ErrEmptyScene) {
						continue
					}
					if err != nil {
						return fmt.Errorf("scene %d: %w", s.Number, err)
					}
					prompts = append(prompts, fmt.Sprintf("Scene %d: %s", s.Number, p))
				}
			} else {
				p, err := gen.Generate(strings.Join(args, " "), opts)
				if err != nil {
					return err
				}
				prompts = append(prompts, p)
			}

			out := strings.Join(prompts, "\n\n")
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if copyOut {
				if err := clipboard.WriteAll(out); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Story script to build a prompt per scene from")
	cmd.Flags().IntVarP(&perCategory, "modifiers", "m", prompt.DefaultPerCategory, "Modifiers drawn from each category")
	cmd.Flags().StringVar(&extra, "context", "", "Extra context appended to every prompt")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Copy the result to the clipboard")
	return cmd
}

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var output string
	var seed int64
	var polish bool

	cmd := &cobra.Command{
		Use:   "enhance [script]",
		Short: "Add emotional beats and a plot twist to a story script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(path)
			if err != nil {
				return err
			}
			enhanced, err := enhancer.New(seededRand(seed)).Enhance(text)
			if err != nil {
				return err
			}

			if polish {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if cfg.LLM.APIKey == "" {
					return errors.New("--polish needs an API key (llm.api_key or OPENAI_API_KEY)")
				}
				rw := enhancer.NewRewriter(enhancer.RewriterConfig{
					APIKey:      cfg.LLM.APIKey,
					BaseURL:     cfg.LLM.BaseURL,
					Model:       cfg.LLM.Model,
					Temperature: cfg.LLM.Temperature,
				}, ctx.log())
				enhanced, err = rw.Rewrite(cmd.Context(), enhanced)
				if err != nil {
					return err
				}
			}
			if err := writeOutput(cmd.OutOrStdout(), output, enhanced); err != nil {
				return err
			}
			if output != "" {
				ctx.log().Info("enhanced script written", zap.String("path", output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the enhanced script here instead of stdout")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().BoolVar(&polish, "polish", false, "Polish the result with the configured language model")
	return cmd
}

// parseAssignments turns repeated field=value flags into an update map.
// Repeating a field collects its values in order.
func parseAssignments(pairs []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", p)
		}
		out[k] = append(out[k], strings.TrimSpace(v))
	}
	return out, nil
}

func newCharacterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "character",
		Short: "Create, update and describe character sheets",
	}

	var appearance, clothing, traits, relationships, states []string
	var background string
	var create bool

	update := &cobra.Command{
		Use:   "update <file>",
		Short: "Update a character sheet (.json or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var c *character.Character
			if create {
				c = character.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			} else {
				var err error
				if c, err = character.Load(path); err != nil {
					return err
				}
			}

			if len(appearance) > 0 {
				updates, err := parseAssignments(appearance)
				if err != nil {
					return err
				}
				if err := c.UpdateAppearance(updates); err != nil {
					return err
				}
			}
			if len(clothing) > 0 {
				updates, err := parseAssignments(clothing)
				if err != nil {
					return err
				}
				if err := c.UpdateClothing(updates); err != nil {
					return err
				}
			}
			for _, t := range traits {
				c.AddTrait(t)
			}
			if background != "" {
				c.SetBackground(background)
			}
			rels, err := parseAssignments(relationships)
			if err != nil {
				return err
			}
			for name, rel := range rels {
				c.AddRelationship(name, rel[len(rel)-1])
			}
			for _, s := range states {
				// scene:key=value
				scene, kv, ok := strings.Cut(s, ":")
				if !ok {
					return fmt.Errorf("expected scene:key=value, got %q", s)
				}
				pairs, err := parseAssignments([]string{kv})
				if err != nil {
					return err
				}
				state, _ := c.SceneState(scene)
				merged := character.SceneState{}
				for k, v := range state {
					merged[k] = v
				}
				for k, v := range pairs {
					merged[k] = v[0]
				}
				c.SetSceneState(scene, merged)
			}
			return c.Save(path)
		},
	}
	update.Flags().BoolVar(&create, "new", false, "Start a new sheet named after the file")
	update.Flags().StringArrayVarP(&appearance, "appearance", "a", nil, "Appearance field=value (repeatable)")
	update.Flags().StringArrayVar(&clothing, "clothing", nil, "Clothing field=value (repeatable)")
	update.Flags().StringArrayVar(&traits, "trait", nil, "Personality trait (repeatable)")
	update.Flags().StringVar(&background, "background", "", "Background story")
	update.Flags().StringArrayVar(&relationships, "relationship", nil, "Relationship name=relation (repeatable)")
	update.Flags().StringArrayVar(&states, "state", nil, "Scene state scene:key=value (repeatable)")

	var sceneID string
	describe := &cobra.Command{
		Use:   "describe <file>",
		Short: "Print a prompt-ready description of a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := character.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Describe(sceneID))
			return nil
		},
	}
	describe.Flags().StringVar(&sceneID, "scene", "", "Include the state recorded for this scene")

	cmd.AddCommand(update, describe)
	return cmd
}

func newStoryboardCommand(ctx *commandContext) *cobra.Command {
	var characterFiles []string
	var title, ratio, output string
	var seed int64

	cmd := &cobra.Command{
		Use:   "storyboard <script>",
		Short: "Write a storyboard manifest with a prompt per scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args[0])
			if err != nil {
				return err
			}
			scenes, err := script.Parse(text)
			if err != nil {
				return err
			}

			var cast []*character.Character
			for _, f := range characterFiles {
				c, err := character.Load(f)
				if err != nil {
					return fmt.Errorf("load character %s: %w", f, err)
				}
				cast = append(cast, c)
			}

			sb, err := storyboard.Build(scenes, prompt.New(seededRand(seed)), cast)
			if err != nil {
				return err
			}
			sb.Title = title
			if ratio == "" {
				ratio = ctx.config.Media.AspectRatio
			}
			r, err := geometry.ParseRatio(ratio)
			if err != nil {
				return err
			}
			sb.AspectRatio = r.String()

			if output == "" {
				output = storyboard.GeneratePath(ctx.outputDir(storyboard.DefaultDir), time.Now())
			}
			if err := storyboard.Write(sb, output); err != nil {
				return err
			}

			rows := make([][]string, len(sb.Scenes))
			for i, s := range sb.Scenes {
				rows[i] = []string{strconv.Itoa(s.Number), strconv.FormatFloat(s.Duration, 'f', 1, 64), excerpt(s.Prompt, 70)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Scene", "Seconds", "Prompt"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
			ctx.log().Info("storyboard written", zap.String("path", output), zap.Int("scenes", len(sb.Scenes)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&characterFiles, "character", nil, "Character sheet to keep consistent (repeatable)")
	cmd.Flags().StringVar(&title, "title", "", "Video title")
	cmd.Flags().StringVar(&ratio, "ratio", "", "Aspect ratio, e.g. 9:16 (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Manifest path (default a timestamped file under the output directory)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	return cmd
}
