package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Resinat/stalecheck/internal/prompt"
)

// PromptFile is the YAML document that customizes the reload prompt.
type PromptFile struct {
	Title               string            `yaml:"title"`
	Description         string            `yaml:"description"`
	ForceUpdate         bool              `yaml:"force_update"`
	CloseOnClickOutside bool              `yaml:"close_on_click_outside"`
	CloseOnEscape       bool              `yaml:"close_on_escape"`
	Width               string            `yaml:"width"`
	ClassName           string            `yaml:"class_name"`
	Style               map[string]string `yaml:"style"`
	Labels              prompt.Labels     `yaml:"labels"`
	LaterInterval       Duration          `yaml:"later_interval"`
	RefreshFallback     Duration          `yaml:"refresh_fallback"`
	TransitionDuration  Duration          `yaml:"transition_duration"`
}

// PromptConfig converts the file into a prompt configuration. Unset
// durations and labels take the prompt defaults.
func (f PromptFile) PromptConfig() prompt.Config {
	return prompt.Config{
		Title:               f.Title,
		Description:         f.Description,
		ForceUpdate:         f.ForceUpdate,
		CloseOnClickOutside: f.CloseOnClickOutside,
		CloseOnEscape:       f.CloseOnEscape,
		Width:               f.Width,
		ClassName:           f.ClassName,
		Style:               f.Style,
		Labels:              f.Labels,
		LaterInterval:       f.LaterInterval.Std(),
		RefreshFallback:     f.RefreshFallback.Std(),
		TransitionDuration:  f.TransitionDuration.Std(),
	}
}

// LoadPromptFile reads the prompt file at path. An empty path yields the
// default prompt configuration. Unknown keys are rejected.
func LoadPromptFile(path string) (prompt.Config, error) {
	if path == "" {
		return PromptFile{CloseOnEscape: true}.PromptConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prompt.Config{}, fmt.Errorf("read prompt file: %w", err)
	}

	f := PromptFile{CloseOnEscape: true}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return prompt.Config{}, fmt.Errorf("parse prompt file %s: %w", path, err)
	}

	var errs []string
	if f.LaterInterval < 0 {
		errs = append(errs, "later_interval must not be negative")
	}
	if f.RefreshFallback < 0 {
		errs = append(errs, "refresh_fallback must not be negative")
	}
	if f.TransitionDuration < 0 {
		errs = append(errs, "transition_duration must not be negative")
	}
	if len(errs) > 0 {
		return prompt.Config{}, fmt.Errorf("prompt file %s validation failed:\n  %s", path, strings.Join(errs, "\n  "))
	}
	return f.PromptConfig(), nil
}
