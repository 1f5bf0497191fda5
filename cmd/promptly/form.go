package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/promptly/client/internal/models"
	"github.com/promptly/client/internal/orchestrator"
)

// errAborted signals the user aborted the form (e.g. Ctrl+C)
var errAborted = errors.New("aborted")

// formPrompter collects the generation form from the user
type formPrompter interface {
	Ask(ctx context.Context) (models.FormInput, error)
}

// formAnswers mirrors the form fields as survey stores them
type formAnswers struct {
	Text        string
	Platform    string
	Temperature string
	MaxTokens   string `survey:"max_tokens"`
	Legacy      bool
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(ctx context.Context) (models.FormInput, error) {
	if err := ctx.Err(); err != nil {
		return models.FormInput{}, err
	}

	platforms := make([]string, len(models.Platforms))
	for i, p := range models.Platforms {
		platforms[i] = string(p)
	}

	questions := []*survey.Question{
		{
			Name:     "text",
			Prompt:   &survey.Multiline{Message: "What should the content be about?"},
			Validate: validateText,
		},
		{
			Name: "platform",
			Prompt: &survey.Select{
				Message: "Platform:",
				Options: platforms,
				Default: string(models.PlatformGeneral),
			},
		},
		{
			Name: "temperature",
			Prompt: &survey.Input{
				Message: "Temperature (0-1):",
				Default: strconv.FormatFloat(orchestrator.DefaultTemperature, 'f', -1, 64),
			},
			Validate: validateFloat,
		},
		{
			Name: "max_tokens",
			Prompt: &survey.Input{
				Message: "Max tokens (50-1024):",
				Default: strconv.Itoa(orchestrator.DefaultMaxTokens),
			},
			Validate: validateInt,
		},
		{
			Name:   "legacy",
			Prompt: &survey.Confirm{Message: "Use the legacy pipeline?", Default: false},
		},
	}

	var answers formAnswers
	if err := survey.Ask(questions, &answers); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return models.FormInput{}, errAborted
		}
		return models.FormInput{}, err
	}
	return answers.input()
}

// input converts answers into form input; values are clamped later
func (a formAnswers) input() (models.FormInput, error) {
	temperature, err := strconv.ParseFloat(strings.TrimSpace(a.Temperature), 64)
	if err != nil {
		return models.FormInput{}, fmt.Errorf("temperature: %w", err)
	}
	maxTokens, err := strconv.Atoi(strings.TrimSpace(a.MaxTokens))
	if err != nil {
		return models.FormInput{}, fmt.Errorf("max tokens: %w", err)
	}
	legacy := a.Legacy
	return models.FormInput{
		Text:        a.Text,
		Platform:    a.Platform,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		UseLegacy:   &legacy,
	}, nil
}

func validateText(ans interface{}) error {
	s, _ := ans.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("text must not be empty")
	}
	return nil
}

func validateFloat(ans interface{}) error {
	s, _ := ans.(string)
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func validateInt(ans interface{}) error {
	s, _ := ans.(string)
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}
