package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/promptly/client/internal/orchestrator"
	"github.com/tidwall/pretty"
)

// renderer prints the states of one submission. Progress goes to errOut so
// stdout carries only the result.
type renderer struct {
	out    io.Writer
	errOut io.Writer
	asJSON bool
}

func (r *renderer) render(st orchestrator.State) error {
	switch st.Kind {
	case orchestrator.KindLoading:
		_, err := fmt.Fprintln(r.errOut, "Generating…")
		return err
	case orchestrator.KindSuccess, orchestrator.KindFailure:
		if r.asJSON {
			return r.json(st)
		}
	default:
		return nil
	}

	if st.Kind == orchestrator.KindFailure {
		e := st.Error
		if e == nil {
			_, err := fmt.Fprintln(r.errOut, "Error: unknown failure")
			return err
		}
		if e.StatusCode != 0 {
			_, err := fmt.Fprintf(r.errOut, "Error (%s, %d): %s\n", e.Kind, e.StatusCode, e.Message)
			return err
		}
		_, err := fmt.Fprintf(r.errOut, "Error (%s): %s\n", e.Kind, e.Message)
		return err
	}

	res := st.Result
	if res == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", res.Content)
	fmt.Fprintf(&b, "Intent:     %s\n", res.Intent)
	fmt.Fprintf(&b, "Sentiment:  %s\n", res.Sentiment)
	fmt.Fprintf(&b, "Time taken: %.2fs\n", res.TimeTakenSeconds)
	if len(res.Documents) > 0 {
		fmt.Fprintf(&b, "Documents:  %s\n", strings.Join(res.Documents, ", "))
	} else {
		b.WriteString("Documents:  none\n")
	}
	if res.FallbackUsed {
		reason := "unspecified"
		if res.Reason != nil && *res.Reason != "" {
			reason = *res.Reason
		}
		fmt.Fprintf(&b, "Fallback:   %s\n", reason)
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *renderer) json(st orchestrator.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = r.out.Write(pretty.Pretty(data))
	return err
}
