// Package run21 implements the rules of 21 Run, a single-player card game
// played against the clock.
//
// A round deals from a shuffled draw deck one card at a time. Each drawn
// card must be played onto one of four lanes. A lane clears and scores when
// it reaches exactly 21, holds five cards without exceeding 21, or receives
// a black jack (the Jack of Clubs or Spades, which acts as a wildcard). A
// lane whose low total exceeds 21 busts: its cards are lost and the bust
// counter advances. Three busts, an exhausted deck, or the session time
// limit end the round.
//
// # Basic Usage
//
//	g := run21.NewGame(run21.DefaultScoring(), run21.DefaultLimits(),
//		run21.WithLogger(logger))
//	g.Events().Subscribe(presenter)
//	g.Reset(nil)
//	g.DrawCard()
//	g.PlayCard(2)
//	if g.UndoLastMove() {
//		// lane 2, the score and the streak are back to where they were
//	}
//
// # Deterministic Rounds
//
// Reset accepts an optional seed. Rounds reset with the same seed deal the
// same cards in the same order, which tournament play and replays rely on:
//
//	seed := int64(42)
//	g.Reset(&seed)
//
// # Architecture
//
// Game owns the decks and counters and is mutated only through DrawCard,
// PlayCard, SetPlayTime and EndGame. Score holds the point arithmetic for a
// round and is finalized once when the round ends. SnapshotManager keeps a
// single pre-move checkpoint so the most recent play can be undone. Every
// lane evaluation publishes a ScoreEvent and the transition into game over
// publishes exactly one GameOverEvent on the game's EventBus.
//
// The engine is single-threaded: callers drive it from one goroutine and
// every operation runs to completion before returning.
package run21
