package server

import (
	"encoding/json"
	"time"

	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/run21"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type ResetData struct {
	Seed *int64 `json:"seed,omitempty"`
}

type PlayData struct {
	Lane int `json:"lane"`
}

type HintRequestData struct {
	Lane int `json:"lane"`
}

// Server → Client Messages

type WelcomeData struct {
	ConnectionID string `json:"connectionId"`
	RoundID      string `json:"roundId"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateData is the full board, sent after every command and while the
// clock runs.
type StateData = run21.View

type ScoreData struct {
	Lane        int         `json:"lane"`
	Card        deck.Card   `json:"card"`
	Points      int         `json:"points"`
	Run21       bool        `json:"run21"`
	BlackJack   bool        `json:"blackJack"`
	FiveCard    bool        `json:"fiveCard"`
	Bust        bool        `json:"bust"`
	Streak      int         `json:"streak"`
	IsStreak    bool        `json:"isStreak"`
	Removed     []deck.Card `json:"removed,omitempty"`
	GameScore   int         `json:"gameScore"`
	Busts       int         `json:"busts"`
	ColumnClear bool        `json:"columnClear"`
}

// ScoreDataFromEvent converts an engine score event
func ScoreDataFromEvent(e run21.ScoreEvent, gameScore, busts int) ScoreData {
	d := ScoreData{
		Lane:        e.Lane,
		Card:        e.Card,
		Points:      e.Score,
		Run21:       e.IsValue21,
		BlackJack:   e.IsBlackJack,
		FiveCard:    e.IsFiveCardsScore,
		Bust:        e.IsBust,
		Streak:      e.Streak,
		IsStreak:    e.IsStreak,
		GameScore:   gameScore,
		Busts:       busts,
		ColumnClear: e.Scored(),
	}
	if e.Deck != nil {
		d.Removed = e.Deck.Cards()
	}
	return d
}

type GameOverData struct {
	RoundID        string               `json:"roundId"`
	TimeExpired    bool                 `json:"timeExpired"`
	Busts          int                  `json:"busts"`
	EmptyLanes     [run21.NumLanes]bool `json:"emptyLanes"`
	Perfect        bool                 `json:"perfect"`
	FinalScore     int                  `json:"finalScore"`
	GameScore      int                  `json:"gameScore"`
	BustScore      int                  `json:"bustScore"`
	LaneScore      int                  `json:"laneScore"`
	PerfectBonus   int                  `json:"perfectBonus"`
	TimeScore      int                  `json:"timeScore"`
	PlayTime       float64              `json:"playTime"`
	CardsPlayed    int                  `json:"cardsPlayed"`
	BestStreak     int                  `json:"bestStreak"`
	ColumnsCleared int                  `json:"columnsCleared"`
}

type HintData struct {
	Lane      int  `json:"lane"`
	Bust      bool `json:"bust"`
	Scores    bool `json:"scores"`
	High      int  `json:"high"`
	Low       int  `json:"low"`
	BlackJack bool `json:"blackJack"`
}
