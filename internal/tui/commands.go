package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
)

const (
	refreshTimeout  = 35 * time.Second
	generateTimeout = 2 * time.Minute
	submitTimeout   = 30 * time.Second
)

type disputesLoadedMsg struct {
	ticket   desk.Ticket
	disputes []dispute.Dispute
	err      error
}

type draftReadyMsg struct {
	ticket     desk.Ticket
	disputeID  string
	suggestion desk.Suggestion
	err        error
}

type submitResultMsg struct {
	ticket    desk.Ticket
	disputeID string
	err       error
}

func refreshJob(ctrl *desk.Controller, ticket desk.Ticket) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, refreshTimeout)
		defer cancel()
		disputes, err := ctrl.Load(ctx)
		return disputesLoadedMsg{ticket: ticket, disputes: disputes, err: err}, err
	}
}

func generateJob(ctrl *desk.Controller, ticket desk.Ticket, d dispute.Dispute) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, generateTimeout)
		defer cancel()
		suggestion, err := ctrl.Generate(ctx, d)
		return draftReadyMsg{ticket: ticket, disputeID: d.ID, suggestion: suggestion, err: err}, err
	}
}

func submitJob(ctrl *desk.Controller, ticket desk.Ticket, sub desk.Submission) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, submitTimeout)
		defer cancel()
		err := ctrl.Deliver(ctx, sub)
		return submitResultMsg{ticket: ticket, disputeID: sub.DisputeID, err: err}, err
	}
}
