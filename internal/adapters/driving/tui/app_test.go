package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

// --- Mock implementations ---

type mockAnswerService struct {
	answer  *domain.Answer
	err     error
	queries []string
}

func (m *mockAnswerService) Answer(_ context.Context, query, _ string) (*domain.Answer, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func newTestApp(t *testing.T, answer *mockAnswerService) *App {
	t.Helper()

	app, err := New(context.Background(), &Ports{Answer: answer})
	require.NoError(t, err)

	// Simulate the first window size message so the app is ready.
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(*App)
}

func TestNew_RequiresAnswerService(t *testing.T) {
	_, err := New(context.Background(), &Ports{})
	assert.ErrorIs(t, err, ErrMissingAnswerService)
}

func TestNew_AssignsSession(t *testing.T) {
	first, err := New(context.Background(), &Ports{Answer: &mockAnswerService{}})
	require.NoError(t, err)
	second, err := New(context.Background(), &Ports{Answer: &mockAnswerService{}})
	require.NoError(t, err)

	assert.NotEmpty(t, first.sessionID)
	assert.NotEqual(t, first.sessionID, second.sessionID)
}

func TestApp_SubmitAsksService(t *testing.T) {
	mock := &mockAnswerService{
		answer: &domain.Answer{
			Text:     "PC210 is at Mining Site North.",
			Grounded: true,
			Sources: []domain.SourceRef{
				{Type: domain.SourceTable, Table: domain.TableMachineTracking, RecordKey: "7"},
			},
		},
	}
	app := newTestApp(t, mock)

	app.input.SetValue("where is PC210")
	cmd := app.submit()
	require.NotNil(t, cmd)
	assert.True(t, app.waiting)
	require.Len(t, app.transcript, 1)
	assert.True(t, app.transcript[0].pending)

	// Run the command synchronously and feed the result back.
	msg := cmd()
	answered, ok := msg.(answerMsg)
	require.True(t, ok)
	app.Update(answered)

	assert.False(t, app.waiting)
	require.Len(t, app.transcript, 1)
	assert.Equal(t, "PC210 is at Mining Site North.", app.transcript[0].answer)
	assert.Equal(t, []string{"[machine_tracking 7]"}, app.transcript[0].sources)
	assert.Equal(t, []string{"where is PC210"}, mock.queries)
}

func TestApp_SubmitIgnoresEmptyInput(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	app.input.SetValue("   ")
	assert.Nil(t, app.submit())
	assert.Empty(t, app.transcript)
}

func TestApp_SubmitIgnoredWhileWaiting(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{answer: &domain.Answer{Text: "ok"}})

	app.input.SetValue("first")
	require.NotNil(t, app.submit())

	app.input.SetValue("second")
	assert.Nil(t, app.submit())
	assert.Len(t, app.transcript, 1)
}

func TestApp_AnswerErrorShownInTranscript(t *testing.T) {
	mock := &mockAnswerService{err: errors.New("model offline")}
	app := newTestApp(t, mock)

	app.input.SetValue("where is PC210")
	cmd := app.submit()
	require.NotNil(t, cmd)

	msg := cmd()
	failed, ok := msg.(answerErrMsg)
	require.True(t, ok)
	app.Update(failed)

	assert.False(t, app.waiting)
	assert.Contains(t, app.transcript[0].answer, "model offline")
}

func TestApp_QuitKeys(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, err := New(context.Background(), &Ports{Answer: &mockAnswerService{}})
	require.NoError(t, err)

	assert.Equal(t, "Loading...", app.View())
}

func TestApp_HeaderShowsStats(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	app.Update(statsMsg{documents: 12, chunks: 340})

	assert.Contains(t, app.View(), "12 documents, 340 chunks indexed")
}

func TestApp_ViewRendersTranscript(t *testing.T) {
	mock := &mockAnswerService{answer: &domain.Answer{Text: "45 percent worn."}}
	app := newTestApp(t, mock)

	app.input.SetValue("bushing wear for D155")
	cmd := app.submit()
	app.Update(cmd())

	view := app.View()
	assert.Contains(t, view, "bushing wear for D155")
	assert.Contains(t, view, "45 percent worn.")
	assert.Contains(t, view, "FleetMind")
}
