package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/history"
	"github.com/freerange/run21/internal/run21"
	"github.com/freerange/run21/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket client and the round it is playing
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	opts      Options

	game     *run21.Game
	session  *session.Session
	recorder *history.Recorder

	lastSecond int // touched only by the clock goroutine
}

// NewConnection creates a connection with a freshly dealt round
func NewConnection(conn *websocket.Conn, opts Options, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	c := &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn").With("id", id),
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	c.game = run21.NewGame(opts.Scoring, opts.Limits, run21.WithLogger(c.logger))
	c.recorder = history.NewRecorder(c.game, history.WithLogger(c.logger), history.OnComplete(c.saveHistory))
	c.game.Events().Subscribe(run21.SubscriberFunc(c.onGameEvent))
	c.session = session.New(c.game, opts.Clock, opts.ClockTick, c.logger)
	c.session.OnTick(c.onTick)
	return c
}

// ID returns the connection's unique identifier
func (c *Connection) ID() string {
	return c.id
}

// Done is closed when the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Start greets the client and begins handling the connection
func (c *Connection) Start() {
	c.sendWelcome("")
	c.sendState("", c.session.View())
	c.session.Start(c.ctx)

	go c.writePump()
	go c.readPump()
}

// Close closes the connection. Cancelling the context also stops the
// round's play clock.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("Invalid message", "error", err)
			c.sendError("", ErrCodeInvalidMessage, "Message is not valid JSON")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)
	rid := msg.RequestID

	switch msg.Type {
	case MessageTypeReset:
		var data ResetData
		if !c.decode(msg, &data) {
			return
		}
		view := c.session.Reset(data.Seed)
		c.sendWelcome(rid)
		c.sendState(rid, view)

	case MessageTypeDraw:
		c.command(rid, func(g *run21.Game) (string, string) {
			if !g.ActiveCardDeck().IsEmpty() {
				return ErrCodeCardActive, "Play the active card first"
			}
			if g.DrawDeck().IsEmpty() {
				return ErrCodeDeckEmpty, "Draw deck is empty"
			}
			g.DrawCard()
			return "", ""
		})

	case MessageTypePlay:
		var data PlayData
		if !c.decode(msg, &data) || !c.validLane(rid, data.Lane) {
			return
		}
		c.command(rid, func(g *run21.Game) (string, string) {
			if g.ActiveCardDeck().IsEmpty() {
				return ErrCodeNoActiveCard, "Draw a card first"
			}
			g.PlayCard(data.Lane)
			return "", ""
		})

	case MessageTypeUndo:
		c.command(rid, func(g *run21.Game) (string, string) {
			if !g.UndoLastMove() {
				return ErrCodeNothingToUndo, "No move to undo"
			}
			return "", ""
		})

	case MessageTypeEnd:
		c.command(rid, func(g *run21.Game) (string, string) {
			g.EndGame()
			return "", ""
		})

	case MessageTypeHint:
		var data HintRequestData
		if !c.decode(msg, &data) || !c.validLane(rid, data.Lane) {
			return
		}
		c.handleHint(rid, data.Lane)

	case MessageTypePause:
		c.session.Pause()
		c.sendState(rid, c.session.View())

	case MessageTypeResume:
		c.session.Resume()
		c.sendState(rid, c.session.View())

	case MessageTypeState:
		c.sendState(rid, c.session.View())

	default:
		c.sendError(rid, ErrCodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

// command runs fn against the game unless the round is over, then sends
// either the error fn reports or the new board.
func (c *Connection) command(rid string, fn func(g *run21.Game) (code, message string)) {
	var code, message string
	view := c.session.Do(func(g *run21.Game) {
		if g.IsGameOver() {
			code, message = ErrCodeGameOver, "Round is over, send reset to play again"
			return
		}
		code, message = fn(g)
	})
	if code != "" {
		c.sendError(rid, code, message)
		return
	}
	c.sendState(rid, view)
}

func (c *Connection) handleHint(rid string, lane int) {
	var (
		hint HintData
		ok   bool
	)
	c.session.Do(func(g *run21.Game) {
		card, has := g.ActiveCard()
		if !has {
			return
		}
		o := run21.PreviewPlay(card, g.LaneDeck(lane))
		hint = HintData{Lane: lane, Bust: o.IsBust, Scores: o.Scores(), High: o.High, Low: o.Low, BlackJack: o.IsBlackJack}
		ok = true
	})
	if !ok {
		c.sendError(rid, ErrCodeNoActiveCard, "Draw a card first")
		return
	}
	c.sendMessage(MessageTypeHint, hint, rid)
}

func (c *Connection) decode(msg *Message, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, ErrCodeInvalidMessage, fmt.Sprintf("Failed to parse %s data", msg.Type))
		return false
	}
	return true
}

func (c *Connection) validLane(rid string, lane int) bool {
	if lane < 0 || lane >= run21.NumLanes {
		c.sendError(rid, ErrCodeInvalidLane, fmt.Sprintf("Lane must be between 0 and %d", run21.NumLanes-1))
		return false
	}
	return true
}

// onGameEvent forwards engine events. It runs with the session lock held.
func (c *Connection) onGameEvent(event run21.Event) {
	switch e := event.(type) {
	case run21.ScoreEvent:
		s := c.game.Score()
		c.sendMessage(MessageTypeScore, ScoreDataFromEvent(e, s.GameScore, s.Busts()), "")

	case run21.GameOverEvent:
		s := c.game.Score()
		c.logger.Info("Round finished", "finalScore", e.FinalScore, "busts", e.BustCount, "timeExpired", e.IsTimeExpired)
		c.sendMessage(MessageTypeGameOver, GameOverData{
			RoundID:        c.recorder.RoundID(),
			TimeExpired:    e.IsTimeExpired,
			Busts:          e.BustCount,
			EmptyLanes:     e.EmptyLanes,
			Perfect:        e.PerfectScore,
			FinalScore:     e.FinalScore,
			GameScore:      s.GameScore,
			BustScore:      s.BustScore(),
			LaneScore:      s.LaneScore(),
			PerfectBonus:   s.PerfectGameScore(),
			TimeScore:      s.TimeScore(),
			PlayTime:       s.PlayTime(),
			CardsPlayed:    c.game.CardsPlayed(),
			BestStreak:     c.game.BestStreak(),
			ColumnsCleared: c.game.ColumnsCleared(),
		}, "")
	}
}

// onTick pushes the board once per whole second of play time
func (c *Connection) onTick(view run21.View) {
	sec := int(view.PlayTime)
	if sec == c.lastSecond && !view.IsGameOver {
		return
	}
	c.lastSecond = sec
	c.sendState("", view)
}

func (c *Connection) saveHistory(h *history.History) {
	if c.opts.HistoryDir == "" {
		return
	}
	path := filepath.Join(c.opts.HistoryDir, h.ID+".json")
	if err := history.Save(path, h); err != nil {
		c.logger.Error("Failed to save round history", "error", err)
		return
	}
	c.logger.Info("Saved round history", "path", path)
}

func (c *Connection) sendWelcome(rid string) {
	c.sendMessage(MessageTypeWelcome, WelcomeData{ConnectionID: c.id, RoundID: c.recorder.RoundID()}, rid)
}

func (c *Connection) sendState(rid string, view run21.View) {
	c.sendMessage(MessageTypeState, StateData(view), rid)
}

// sendError sends an error message to the client
func (c *Connection) sendError(rid, code, message string) {
	c.sendMessage(MessageTypeError, ErrorData{Code: code, Message: message}, rid)
}

func (c *Connection) sendMessage(t MessageType, data any, rid string) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	msg.RequestID = rid
	_ = c.SendMessage(msg) // Ignore send errors, the read pump notices a dead peer
}
