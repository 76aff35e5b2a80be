package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/freerange/run21/internal/bot"
	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/run21"
	"github.com/freerange/run21/internal/server"
)

// PlayRound deals a round on the server and plays it to the end with
// strategy, the same way the local simulator does. A nil seed lets the
// server pick one.
func PlayRound(ctx context.Context, c *Client, strategy bot.Strategy, seed *int64) (*server.GameOverData, error) {
	reply, err := c.Call(ctx, server.MessageTypeReset, server.ResetData{Seed: seed})
	if err != nil {
		return nil, err
	}
	view, err := reply.State()
	if err != nil {
		return nil, err
	}

	var over *server.GameOverData
	for steps := 0; ; steps++ {
		if view.IsGameOver {
			if over == nil {
				return nil, fmt.Errorf("round over without a game over report")
			}
			return over, nil
		}
		if steps > 2*deck.StandardSize+2 {
			return nil, fmt.Errorf("round did not finish (seed %d)", view.Seed)
		}

		var (
			msgType server.MessageType
			data    any
		)
		switch view.State {
		case run21.AwaitingDraw.String():
			msgType = server.MessageTypeDraw
		case run21.AwaitingGameOver.String():
			msgType = server.MessageTypeEnd
		default:
			msgType, data = server.MessageTypePlay, server.PlayData{Lane: strategy.ChooseLane(view)}
		}

		reply, err = c.Call(ctx, msgType, data)
		if g, ok := reply.GameOver(); ok {
			over = g
		}

		// The clock can end the round between requests
		var se *ServerError
		if errors.As(err, &se) && se.Code == server.ErrCodeGameOver {
			reply, err = c.Call(ctx, server.MessageTypeState, nil)
		}
		if err != nil {
			return nil, err
		}
		if g, ok := reply.GameOver(); ok {
			over = g
		}

		if view, err = reply.State(); err != nil {
			return nil, err
		}
	}
}
