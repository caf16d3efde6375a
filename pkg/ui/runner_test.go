package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/wkprov/pkg/provision"
)

func newTestModel() runnerModel {
	events := make(chan provision.ProgressEvent, 4)
	return newRunnerModel(events, func() {})
}

func TestRunnerModel_ProgressUpdatesBarAndLogs(t *testing.T) {
	m := newTestModel()

	msg := progressMsg(provision.NewProgressEvent(provision.StageUpdating, "Refreshing package index...", 15))
	updated, cmd := m.Update(msg)

	model := updated.(runnerModel)
	assert.Equal(t, provision.StageUpdating, model.current.Stage)
	assert.InDelta(t, 0.15, model.percent, 0.001)
	require.Len(t, model.logs, 1)
	assert.Contains(t, model.logs[0], "Refreshing package index")
	assert.NotNil(t, cmd, "should keep waiting for events")
}

func TestRunnerModel_IndeterminatePercentKeepsBar(t *testing.T) {
	m := newTestModel()
	m.percent = 0.5

	msg := progressMsg(provision.NewProgressEvent(provision.StageError, "failed", -1))
	updated, _ := m.Update(msg)

	assert.InDelta(t, 0.5, updated.(runnerModel).percent, 0.001)
}

func TestRunnerModel_LogTailBounded(t *testing.T) {
	m := newTestModel()

	var model tea.Model = m
	for i := 0; i < maxLogLines+4; i++ {
		model, _ = model.Update(progressMsg(provision.NewProgressEvent(provision.StageDownloading, "chunk", 60)))
	}

	assert.Len(t, model.(runnerModel).logs, maxLogLines)
}

func TestRunnerModel_DoneQuits(t *testing.T) {
	m := newTestModel()

	result := &provision.Result{Success: true, Version: "0.12.6"}
	updated, cmd := m.Update(doneMsg{result: result, err: nil})

	model := updated.(runnerModel)
	assert.Equal(t, result, model.result)
	assert.NoError(t, model.err)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRunnerModel_DoneCarriesError(t *testing.T) {
	m := newTestModel()

	runErr := errors.New("package index refresh failed")
	updated, _ := m.Update(doneMsg{result: &provision.Result{}, err: runErr})

	assert.Equal(t, runErr, updated.(runnerModel).err)
}

func TestRunnerModel_CtrlCCancels(t *testing.T) {
	events := make(chan provision.ProgressEvent, 4)
	ctx, cancel := context.WithCancel(context.Background())
	m := newRunnerModel(events, cancel)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled")
	}
}

func TestSendEvent_Delivers(t *testing.T) {
	events := make(chan provision.ProgressEvent, 1)
	cb := sendEvent(context.Background(), events)

	cb(provision.NewProgressEvent(provision.StageUpdating, "Refreshing package index...", 15))

	select {
	case e := <-events:
		assert.Equal(t, provision.StageUpdating, e.Stage)
	default:
		t.Fatal("expected an event on the channel")
	}
}

func TestSendEvent_DropsAfterCancel(t *testing.T) {
	// Unbuffered channel with no reader: the send can only complete by
	// giving up on the cancelled context.
	events := make(chan provision.ProgressEvent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cb := sendEvent(ctx, events)

	done := make(chan struct{})
	go func() {
		cb(provision.NewProgressEvent(provision.StageDownloading, "chunk", 60))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback blocked on a cancelled context")
	}
}

func TestStatusIcon(t *testing.T) {
	assert.Contains(t, StatusIcon(true), "✓")
	assert.Contains(t, StatusIcon(false), "✗")
}
