package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/journal"
)

const headlessWrap = 80

func runList(ctx context.Context, ctrl *desk.Controller, query string, out io.Writer) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	session := ctrl.Session()
	session.SetFilter(query)
	visible := session.Visible()
	if len(visible) == 0 {
		_, err := fmt.Fprintln(out, "no disputes")
		return err
	}
	now := time.Now()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tAMOUNT\tREASON\tBUYER\tRESPOND BY")
	for _, d := range visible {
		due := d.ResponseDueDate.UTC().Format("2006-01-02 15:04")
		if d.Overdue(now) {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Status, d.FormatAmount(), d.Reason, d.BuyerEmail, due)
	}
	return tw.Flush()
}

// runDraft prints the suggested response for one dispute. With -message the suggestion is
// replaced by the file's text, and with -submit the result is handed to the sink.
func runDraft(ctx context.Context, ctrl *desk.Controller, opts options, out io.Writer) error {
	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	if err := ctrl.SelectForResponse(ctx, opts.draftID); err != nil && !desk.IsKind(err, desk.KindGeneration) {
		return err
	}
	if opts.messageFile != "" {
		raw, err := os.ReadFile(opts.messageFile)
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		if err := ctrl.EditDraft(strings.TrimSpace(string(raw))); err != nil {
			return err
		}
	}
	draft, ok := ctrl.Session().Draft()
	if !ok {
		return fmt.Errorf("no draft for %s", opts.draftID)
	}
	fmt.Fprintf(out, "Response for %s (%s)\n\n", draft.Dispute.ID, draft.Generator)
	fmt.Fprintln(out, wordwrap.String(draft.Text, headlessWrap))

	if !opts.submit {
		return nil
	}
	if err := ctrl.Submit(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nSubmitted response for %s.\n", draft.Dispute.ID)
	return err
}

// runHistory prints the response journal, optionally for a single dispute.
func runHistory(path, disputeID string, out io.Writer) error {
	if path == "" {
		return fmt.Errorf("no journal configured (set -journal or DISPUTEDESK_JOURNAL)")
	}
	entries, err := journal.Load(path)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if disputeID != "" {
		entries = journal.ForDispute(entries, disputeID)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no responses recorded")
		return err
	}
	for _, e := range entries {
		status := e.EntryType
		if e.Error != "" {
			status += ": " + e.Error
		}
		fmt.Fprintf(out, "%s  %s  %s\n", e.At.UTC().Format(time.RFC3339), e.DisputeID, status)
		fmt.Fprintln(out, indent(wordwrap.String(e.Text, headlessWrap-4), "    "))
	}
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
