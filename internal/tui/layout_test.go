package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func TestPageLayoutUpdate(t *testing.T) {
	t.Parallel()

	var l pageLayout
	l.Update(160, 60)
	if l.contentWidth != 156 {
		t.Fatalf("contentWidth = %d", l.contentWidth)
	}
	if l.tableHeight+l.panelHeight != 60-16 {
		t.Fatalf("heights should share the usable rows: table=%d panel=%d", l.tableHeight, l.panelHeight)
	}

	l.Update(20, 5)
	if l.contentWidth != minViewportWidth || l.tableHeight < 5 || l.panelHeight < 8 || l.draftHeight < 4 {
		t.Fatalf("small windows should clamp: %+v", l)
	}
}

func TestTableColumnsFillWidth(t *testing.T) {
	t.Parallel()

	cols := tableColumns(150)
	total := 0
	for _, c := range cols {
		total += c.Width
	}
	if total != 150-12 {
		t.Fatalf("columns use %d cells, want %d", total, 150-12)
	}
	if cols[0].Title != "ID" || cols[len(cols)-1].Title != "Respond by" {
		t.Fatalf("unexpected column order: %+v", cols)
	}
}

func TestWindowResizeAppliesToWidgets(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.model.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	if f.model.detail.Width != 132 || f.model.detail.Height != f.model.layout.panelHeight {
		t.Fatalf("viewport not resized: %dx%d", f.model.detail.Width, f.model.detail.Height)
	}
	if f.model.table.Height() != f.model.layout.tableHeight {
		t.Fatalf("table height = %d", f.model.table.Height())
	}
}

func TestJobBusReportsOutcome(t *testing.T) {
	t.Parallel()

	bus := newJobBus(zerolog.Nop())
	msgs := collect(bus.Start(jobKindSubmit, func(context.Context) (tea.Msg, error) {
		return "payload", errors.New("boom")
	}))
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want signal and result", len(msgs))
	}
	signal, ok := msgs[0].(jobSignalMsg)
	if !ok || signal.Snapshot.Status != jobStatusRunning || signal.Snapshot.ID != "submit-1" {
		t.Fatalf("unexpected signal %#v", msgs[0])
	}
	result, ok := msgs[1].(jobResultEnvelope)
	if !ok || result.Snapshot.Status != jobStatusFailed || result.Snapshot.Err != "boom" || result.Payload != "payload" {
		t.Fatalf("unexpected result %#v", msgs[1])
	}
}

func TestJobBusShutdownCancelsRunners(t *testing.T) {
	t.Parallel()

	bus := newJobBus(zerolog.Nop())
	bus.Shutdown()
	msgs := collect(bus.Start(jobKindRefresh, func(ctx context.Context) (tea.Msg, error) {
		return nil, ctx.Err()
	}))
	result := msgs[len(msgs)-1].(jobResultEnvelope)
	if result.Snapshot.Status != jobStatusFailed || result.Snapshot.Err != context.Canceled.Error() {
		t.Fatalf("runner should see a cancelled context: %+v", result.Snapshot)
	}
}

func TestJobBusCancelStopsOneKind(t *testing.T) {
	t.Parallel()

	bus := newJobBus(zerolog.Nop())
	generate := bus.Start(jobKindGenerate, func(ctx context.Context) (tea.Msg, error) {
		return nil, ctx.Err()
	})
	refresh := bus.Start(jobKindRefresh, func(ctx context.Context) (tea.Msg, error) {
		return nil, ctx.Err()
	})
	if !bus.Cancel(jobKindGenerate) {
		t.Fatal("Cancel() should find the running generate job")
	}
	if bus.Cancel(jobKindGenerate) {
		t.Fatal("a second Cancel() has nothing left to stop")
	}

	msgs := collect(generate)
	if result := msgs[len(msgs)-1].(jobResultEnvelope); result.Snapshot.Err != context.Canceled.Error() {
		t.Fatalf("generate job should be cancelled: %+v", result.Snapshot)
	}
	msgs = collect(refresh)
	if result := msgs[len(msgs)-1].(jobResultEnvelope); result.Snapshot.Status != jobStatusSucceeded {
		t.Fatalf("refresh job should be untouched: %+v", result.Snapshot)
	}
	if bus.Cancel(jobKindRefresh) {
		t.Fatal("finished jobs are no longer tracked")
	}
}
