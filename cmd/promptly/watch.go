package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/promptly/client/internal/eventbus"
	"github.com/promptly/client/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow submission transitions published by a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if natsURL == "" {
				natsURL = cfg.NATSURL
			}
			if natsURL == "" {
				return errors.New("no NATS URL: set --nats-url or NATS_URL")
			}

			logger := root.logger()
			bus, err := eventbus.Connect(natsURL, logger)
			if err != nil {
				return err
			}
			defer bus.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			return bus.Watch(ctx, func(st orchestrator.State) {
				fmt.Fprintln(out, describe(st))
			})
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (default $NATS_URL)")
	return cmd
}

// describe summarizes a transition on one line
func describe(st orchestrator.State) string {
	ts := st.UpdatedAt.Format("15:04:05.000")
	switch st.Kind {
	case orchestrator.KindSuccess:
		if st.Result != nil && st.Result.FallbackUsed {
			return fmt.Sprintf("%s #%d success (fallback)", ts, st.SubmissionID)
		}
		return fmt.Sprintf("%s #%d success", ts, st.SubmissionID)
	case orchestrator.KindFailure:
		if st.Error != nil {
			return fmt.Sprintf("%s #%d failure %s: %s", ts, st.SubmissionID, st.Error.Kind, st.Error.Message)
		}
		return fmt.Sprintf("%s #%d failure", ts, st.SubmissionID)
	default:
		return fmt.Sprintf("%s #%d %s", ts, st.SubmissionID, st.Kind)
	}
}
