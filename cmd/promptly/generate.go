package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/promptly/client/internal/models"
	"github.com/promptly/client/internal/orchestrator"
	"github.com/spf13/cobra"
)

// errGenerationFailed is returned after a failure has been rendered
var errGenerationFailed = errors.New("generation failed")

type generateOptions struct {
	platform    string
	temperature float64
	maxTokens   int
	legacy      bool
	interactive bool
	asJSON      bool

	prompter formPrompter
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [text...]",
		Short: "Generate content for a prompt",
		Long: `Generate content for a prompt. The text is taken from the arguments,
from standard input when it is not a terminal, or from an interactive form.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := opts.input(cmd, args)
			if err != nil {
				return err
			}
			return runGenerate(cmd, root, input, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", string(models.PlatformGeneral), "Target platform: General, Instagram, LinkedIn, YouTube Script")
	cmd.Flags().Float64VarP(&opts.temperature, "temperature", "t", orchestrator.DefaultTemperature, "Sampling temperature, clamped to [0, 1]")
	cmd.Flags().IntVarP(&opts.maxTokens, "max-tokens", "m", orchestrator.DefaultMaxTokens, "Maximum tokens, clamped to [50, 1024]")
	cmd.Flags().BoolVar(&opts.legacy, "legacy", false, "Use the legacy generation pipeline")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Fill in the form interactively")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the final state as JSON")
	return cmd
}

// input builds the form from flags, arguments, stdin or the interactive form
func (o *generateOptions) input(cmd *cobra.Command, args []string) (models.FormInput, error) {
	if o.interactive || (len(args) == 0 && stdinIsTerminal(cmd)) {
		p := o.prompter
		if p == nil {
			p = surveyPrompter{}
		}
		return p.Ask(cmd.Context())
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return models.FormInput{}, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	input := models.FormInput{Text: text}
	flags := cmd.Flags()
	if flags.Changed("platform") {
		p, ok := models.ParsePlatform(o.platform)
		if !ok {
			return models.FormInput{}, fmt.Errorf("unknown platform %q", o.platform)
		}
		input.Platform = string(p)
	}
	if flags.Changed("temperature") {
		input.Temperature = &o.temperature
	}
	if flags.Changed("max-tokens") {
		input.MaxTokens = &o.maxTokens
	}
	if flags.Changed("legacy") {
		input.UseLegacy = &o.legacy
	}
	return input, nil
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runGenerate(cmd *cobra.Command, root *rootOptions, input models.FormInput, asJSON bool) error {
	cfg, err := root.config()
	if err != nil {
		return err
	}
	logger := root.logger()
	defer logger.Sync()

	client, err := root.client(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orch := orchestrator.New(client, logger, orchestrator.WithBaseContext(ctx))
	defer orch.Close()

	states, unsubscribe := orch.Subscribe()
	defer unsubscribe()

	id, err := orch.Submit(input)
	if errors.Is(err, orchestrator.ErrEmptyText) {
		return errors.New("text must not be empty")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := &renderer{out: out, errOut: cmd.ErrOrStderr(), asJSON: asJSON}
	for {
		select {
		case <-ctx.Done():
			return abort(cmd, orch)
		case st, ok := <-states:
			if !ok {
				return orchestrator.ErrClosed
			}
			// The interrupt also fails the call; report it as a cancellation.
			if ctx.Err() != nil {
				return abort(cmd, orch)
			}
			if st.SubmissionID != id {
				continue
			}
			if err := r.render(st); err != nil {
				return err
			}
			switch st.Kind {
			case orchestrator.KindSuccess:
				return nil
			case orchestrator.KindFailure:
				return errGenerationFailed
			}
		}
	}
}

func abort(cmd *cobra.Command, orch *orchestrator.Orchestrator) error {
	orch.Reset()
	fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
	return errAborted
}
