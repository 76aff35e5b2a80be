package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/freerange/run21/internal/history"
	"github.com/freerange/run21/internal/run21"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, historyDir string) *httptest.Server {
	t.Helper()

	s := NewServer("", Options{
		Scoring:    run21.DefaultScoring(),
		Limits:     run21.DefaultLimits(),
		ClockTick:  100 * time.Millisecond,
		HistoryDir: historyDir,
		Clock:      quartz.NewMock(t),
	}, log.New(io.Discard))

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
		ts.Close()
	})
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType MessageType, data any, requestID string) {
	t.Helper()

	msg, err := NewMessage(msgType, data)
	require.NoError(t, err)
	msg.RequestID = requestID
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

// expect reads the next message, checks its type and decodes its data
func expect(t *testing.T, conn *websocket.Conn, msgType MessageType, v any) *Message {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, msgType, msg.Type, "data: %s", msg.Data)
	if v != nil {
		require.NoError(t, json.Unmarshal(msg.Data, v))
	}
	return msg
}

// connect dials and consumes the greeting
func connect(t *testing.T, ts *httptest.Server) (*websocket.Conn, WelcomeData) {
	t.Helper()

	conn := dial(t, ts)
	var welcome WelcomeData
	expect(t, conn, MessageTypeWelcome, &welcome)
	var state StateData
	expect(t, conn, MessageTypeState, &state)
	assert.Equal(t, run21.AwaitingDraw.String(), state.State)
	return conn, welcome
}

func reset(t *testing.T, conn *websocket.Conn, seed int64) StateData {
	t.Helper()

	send(t, conn, MessageTypeReset, ResetData{Seed: &seed}, "reset")
	expect(t, conn, MessageTypeWelcome, nil)
	var state StateData
	expect(t, conn, MessageTypeState, &state)
	require.Equal(t, seed, state.Seed)
	return state
}

func expectError(t *testing.T, conn *websocket.Conn, code string) *Message {
	t.Helper()

	var data ErrorData
	msg := expect(t, conn, MessageTypeError, &data)
	assert.Equal(t, code, data.Code, data.Message)
	return msg
}

func TestWelcome(t *testing.T) {
	ts := newTestServer(t, "")
	_, welcome := connect(t, ts)

	assert.NotEmpty(t, welcome.ConnectionID)
	assert.Len(t, welcome.RoundID, 26)
}

func TestDrawPlayAndUndo(t *testing.T) {
	ts := newTestServer(t, "")
	conn, _ := connect(t, ts)
	start := reset(t, conn, 42)
	require.Nil(t, start.ActiveCard)

	send(t, conn, MessageTypeDraw, nil, "d1")
	var drawn StateData
	msg := expect(t, conn, MessageTypeState, &drawn)
	assert.Equal(t, "d1", msg.RequestID)
	require.NotNil(t, drawn.ActiveCard)
	assert.Equal(t, start.DrawCount-1, drawn.DrawCount)

	send(t, conn, MessageTypePlay, PlayData{Lane: 2}, "p1")
	var score ScoreData
	expect(t, conn, MessageTypeScore, &score)
	assert.Equal(t, 2, score.Lane)
	assert.True(t, score.Card.Same(*drawn.ActiveCard))

	var played StateData
	msg = expect(t, conn, MessageTypeState, &played)
	assert.Equal(t, "p1", msg.RequestID)
	assert.Equal(t, 1, played.CardsPlayed)
	assert.Nil(t, played.ActiveCard)
	assert.True(t, played.UndoAvailable)

	send(t, conn, MessageTypeUndo, nil, "u1")
	var undone StateData
	expect(t, conn, MessageTypeState, &undone)
	assert.Equal(t, 0, undone.CardsPlayed)
	require.NotNil(t, undone.ActiveCard)
	assert.True(t, undone.ActiveCard.Same(*drawn.ActiveCard))
	assert.Empty(t, undone.Lanes[2].Cards)
}

func TestCommandErrors(t *testing.T) {
	ts := newTestServer(t, "")
	conn, _ := connect(t, ts)
	reset(t, conn, 7)

	t.Run("invalid json", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		expectError(t, conn, ErrCodeInvalidMessage)
	})

	t.Run("bad payload", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "play", "data": map[string]any{"lane": "two"}, "requestId": "bad"}))
		msg := expectError(t, conn, ErrCodeInvalidMessage)
		assert.Equal(t, "bad", msg.RequestID)
	})

	t.Run("unknown type", func(t *testing.T) {
		send(t, conn, MessageType("shuffle"), nil, "")
		expectError(t, conn, ErrCodeUnknownType)
	})

	t.Run("lane out of range", func(t *testing.T) {
		send(t, conn, MessageTypePlay, PlayData{Lane: run21.NumLanes}, "")
		expectError(t, conn, ErrCodeInvalidLane)
	})

	t.Run("play without card", func(t *testing.T) {
		send(t, conn, MessageTypePlay, PlayData{Lane: 0}, "")
		expectError(t, conn, ErrCodeNoActiveCard)
	})

	t.Run("hint without card", func(t *testing.T) {
		send(t, conn, MessageTypeHint, HintRequestData{Lane: 0}, "")
		expectError(t, conn, ErrCodeNoActiveCard)
	})

	t.Run("nothing to undo", func(t *testing.T) {
		send(t, conn, MessageTypeUndo, nil, "")
		expectError(t, conn, ErrCodeNothingToUndo)
	})

	t.Run("draw with card active", func(t *testing.T) {
		send(t, conn, MessageTypeDraw, nil, "d1")
		var drawn StateData
		expect(t, conn, MessageTypeState, &drawn)
		require.NotNil(t, drawn.ActiveCard)

		send(t, conn, MessageTypeDraw, nil, "d2")
		msg := expectError(t, conn, ErrCodeCardActive)
		assert.Equal(t, "d2", msg.RequestID)

		send(t, conn, MessageTypeState, nil, "s1")
		var state StateData
		expect(t, conn, MessageTypeState, &state)
		assert.Equal(t, drawn.DrawCount, state.DrawCount)
		assert.True(t, state.ActiveCard.Same(*drawn.ActiveCard))
	})
}

func TestHint(t *testing.T) {
	ts := newTestServer(t, "")
	conn, _ := connect(t, ts)
	reset(t, conn, 3)

	send(t, conn, MessageTypeDraw, nil, "")
	var state StateData
	expect(t, conn, MessageTypeState, &state)
	require.NotNil(t, state.ActiveCard)

	send(t, conn, MessageTypeHint, HintRequestData{Lane: 1}, "h")
	var hint HintData
	msg := expect(t, conn, MessageTypeHint, &hint)
	assert.Equal(t, "h", msg.RequestID)
	assert.Equal(t, 1, hint.Lane)
	assert.False(t, hint.Bust)

	high, low := run21.CardValue(*state.ActiveCard)
	assert.Equal(t, high, hint.High)
	assert.Equal(t, low, hint.Low)
}

func TestPauseAndResume(t *testing.T) {
	ts := newTestServer(t, "")
	conn, _ := connect(t, ts)

	send(t, conn, MessageTypePause, nil, "")
	var state StateData
	expect(t, conn, MessageTypeState, &state)
	assert.False(t, state.IsGameOver)

	send(t, conn, MessageTypeResume, nil, "")
	expect(t, conn, MessageTypeState, &state)
	assert.False(t, state.IsGameOver)
}

func TestEndSavesHistory(t *testing.T) {
	dir := t.TempDir()
	ts := newTestServer(t, dir)
	conn, _ := connect(t, ts)
	reset(t, conn, 11)

	for lane := range 2 {
		send(t, conn, MessageTypeDraw, nil, "")
		expect(t, conn, MessageTypeState, nil)
		send(t, conn, MessageTypePlay, PlayData{Lane: lane}, "")
		expect(t, conn, MessageTypeScore, nil)
		expect(t, conn, MessageTypeState, nil)
	}

	send(t, conn, MessageTypeEnd, nil, "")
	var over GameOverData
	expect(t, conn, MessageTypeGameOver, &over)
	assert.False(t, over.TimeExpired)
	assert.Equal(t, 2, over.CardsPlayed)

	var state StateData
	expect(t, conn, MessageTypeState, &state)
	assert.True(t, state.IsGameOver)
	assert.Equal(t, over.FinalScore, state.FinalScore)

	send(t, conn, MessageTypeDraw, nil, "")
	expectError(t, conn, ErrCodeGameOver)

	path := filepath.Join(dir, over.RoundID+".json")
	require.FileExists(t, path)
	h, err := history.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(11), h.Seed)
	assert.Equal(t, 2, h.Plays())
	require.True(t, h.Complete())
	assert.Equal(t, over.FinalScore, h.Final.FinalScore)

	g, err := history.Replay(h, nil)
	require.NoError(t, err)
	assert.Equal(t, over.FinalScore, g.Score().FinalScore())
}

func TestResetStartsNewRound(t *testing.T) {
	ts := newTestServer(t, "")
	conn, first := connect(t, ts)

	seed := int64(5)
	send(t, conn, MessageTypeReset, ResetData{Seed: &seed}, "")
	var welcome WelcomeData
	expect(t, conn, MessageTypeWelcome, &welcome)
	expect(t, conn, MessageTypeState, nil)

	assert.Equal(t, first.ConnectionID, welcome.ConnectionID)
	assert.NotEqual(t, first.RoundID, welcome.RoundID)
}

func TestConnectionsAreIndependent(t *testing.T) {
	ts := newTestServer(t, "")
	a, _ := connect(t, ts)
	b, _ := connect(t, ts)
	reset(t, a, 1)
	reset(t, b, 1)

	send(t, a, MessageTypeDraw, nil, "")
	expect(t, a, MessageTypeState, nil)

	send(t, b, MessageTypeState, nil, "")
	var state StateData
	expect(t, b, MessageTypeState, &state)
	assert.Nil(t, state.ActiveCard)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}
