package desk

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink records submitted responses in the log and nowhere else.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) SubmitResponse(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Log.Info().
		Str("dispute_id", sub.DisputeID).
		Str("request_id", sub.RequestID).
		Int("chars", len(sub.Text)).
		Str("response", sub.Text).
		Msg("submitting response")
	return nil
}
