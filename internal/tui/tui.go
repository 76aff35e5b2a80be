// Package tui is the terminal front end for a Run21 round.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/run21"
	"github.com/freerange/run21/internal/session"
)

const (
	logHeight  = 6
	maxLogSize = 200
)

// Model is the Bubble Tea model for a single player round
type Model struct {
	session *session.Session
	logger  *log.Logger

	keys        keyMap
	help        help.Model
	logViewport viewport.Model

	// updates carries engine events and clock ticks into the program
	updates chan tea.Msg
	// gameOvers holds the latest game over event; it is never dropped
	gameOvers chan tea.Msg

	view     run21.View
	paused   bool
	gameLog  []string
	width    int
	quitting bool
}

type viewMsg struct{ view run21.View }

type eventMsg struct{ event run21.Event }

// NewModel creates a model for the round owned by s
func NewModel(s *session.Session, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	vp := viewport.New(60, logHeight)
	vp.SetContent("")

	m := &Model{
		session:     s,
		logger:      logger.WithPrefix("tui"),
		keys:        defaultKeyMap(),
		help:        help.New(),
		logViewport: vp,
		updates:     make(chan tea.Msg, 64),
		gameOvers:   make(chan tea.Msg, 1),
	}

	s.OnTick(func(v run21.View) { m.push(viewMsg{view: v}) })
	m.view = s.Do(func(g *run21.Game) {
		g.Events().Subscribe(run21.SubscriberFunc(func(e run21.Event) { m.push(eventMsg{event: e}) }))
	})
	m.addLogEntry(InfoStyle.Render(fmt.Sprintf("Round dealt, seed %d", m.view.Seed)))
	return m
}

// push never blocks; it is called with the session lock held
func (m *Model) push(msg tea.Msg) {
	if ev, ok := msg.(eventMsg); ok {
		if _, over := ev.event.(run21.GameOverEvent); over {
			m.pushGameOver(msg)
			return
		}
	}
	select {
	case m.updates <- msg:
	default:
		m.logger.Debug("Update dropped, program not keeping up")
	}
}

// pushGameOver replaces an unread game over from an earlier round
func (m *Model) pushGameOver(msg tea.Msg) {
	for {
		select {
		case m.gameOvers <- msg:
			return
		default:
		}
		select {
		case <-m.gameOvers:
		default:
		}
	}
}

// waitForUpdate delivers queued updates before a pending game over so the
// log keeps engine order
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.updates:
			return msg
		default:
		}
		select {
		case msg := <-m.updates:
			return msg
		case msg := <-m.gameOvers:
			return msg
		}
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		m.view = msg.view
		return m, m.waitForUpdate()

	case eventMsg:
		m.onEvent(msg.event)
		return m, m.waitForUpdate()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.logViewport.Width = max(msg.Width-2, 1)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Draw):
		if m.view.ActiveCard != nil && !m.view.IsGameOver {
			m.addLogEntry(InfoStyle.Render("Play the active card first"))
		}
		m.view = m.session.Do(func(g *run21.Game) { g.DrawCard() })

	case key.Matches(msg, m.keys.Play):
		lane := int(msg.String()[0] - '1')
		m.view = m.session.Do(func(g *run21.Game) { g.PlayCard(lane) })

	case key.Matches(msg, m.keys.Undo):
		var ok bool
		m.view = m.session.Do(func(g *run21.Game) { ok = g.UndoLastMove() })
		if !ok {
			m.addLogEntry(InfoStyle.Render("Nothing to undo"))
		}

	case key.Matches(msg, m.keys.Pause):
		if m.session.Paused() {
			m.session.Resume()
		} else {
			m.session.Pause()
		}
		m.paused = m.session.Paused()

	case key.Matches(msg, m.keys.End):
		m.view = m.session.Do(func(g *run21.Game) { g.EndGame() })

	case key.Matches(msg, m.keys.Reset):
		m.view = m.session.Reset(nil)
		m.paused = false

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) onEvent(event run21.Event) {
	switch e := event.(type) {
	case run21.RoundStartEvent:
		m.gameLog = nil
		m.addLogEntry(InfoStyle.Render(fmt.Sprintf("Round dealt, seed %d", e.Seed)))

	case run21.ScoreEvent:
		m.addLogEntry(describeScore(e))

	case run21.UndoEvent:
		m.addLogEntry(InfoStyle.Render(fmt.Sprintf("Move undone, score %d", e.GameScore)))

	case run21.GameOverEvent:
		reason := "round ended"
		switch {
		case e.IsTimeExpired:
			reason = "time up"
		case e.PerfectScore:
			reason = "perfect game"
		}
		m.addLogEntry(WarningStyle.Render(fmt.Sprintf("Game over (%s): final score %d", reason, e.FinalScore)))
	}
}

func describeScore(e run21.ScoreEvent) string {
	lane := fmt.Sprintf("Lane %d: %s", e.Lane+1, formatCard(e.Card))
	switch {
	case e.IsBust:
		return ErrorStyle.Render(fmt.Sprintf("%s bust", lane))
	case e.Scored():
		var kinds []string
		if e.IsBlackJack {
			kinds = append(kinds, "black jack")
		}
		if e.IsValue21 {
			kinds = append(kinds, "21")
		}
		if e.IsFiveCardsScore {
			kinds = append(kinds, "five cards")
		}
		line := fmt.Sprintf("%s %s +%d", lane, strings.Join(kinds, " + "), e.Score)
		if e.IsStreak {
			line += fmt.Sprintf(" (streak %d)", e.Streak)
		}
		return SuccessStyle.Render(line)
	default:
		return lane
	}
}

// addLogEntry adds an entry to the game log and scrolls to it
func (m *Model) addLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	if len(m.gameLog) > maxLogSize {
		m.gameLog = m.gameLog[len(m.gameLog)-maxLogSize:]
	}
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("♠ Run21 ♣"))
	b.WriteString("  ")
	b.WriteString(m.renderStats())
	b.WriteString("\n\n")

	lanes := make([]string, 0, run21.NumLanes+1)
	lanes = append(lanes, m.renderActiveCard())
	for i := range run21.NumLanes {
		lanes = append(lanes, m.renderLane(i))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lanes...))
	b.WriteString("\n")

	switch {
	case m.view.IsGameOver:
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Game over! Final score %d. Press r for a new round.", m.view.FinalScore)))
	case m.paused:
		b.WriteString(WarningStyle.Render("Paused"))
	}
	b.WriteString("\n")

	b.WriteString(LogStyle.Render(m.logViewport.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderStats() string {
	v := m.view
	stats := []string{
		fmt.Sprintf("Score %d", v.GameScore),
		fmt.Sprintf("Busts %d/%d", v.Busts, v.MaxBusts),
		fmt.Sprintf("Time %.0f/%.0fs", v.PlayTime, v.MaxPlayTime),
		fmt.Sprintf("Streak %d", v.Streak),
		fmt.Sprintf("Cards %d", v.RemainingCards),
	}
	return StatStyle.Render(strings.Join(stats, "  "))
}

func (m *Model) renderActiveCard() string {
	card := InfoStyle.Render("--")
	if m.view.ActiveCard != nil {
		card = formatCard(*m.view.ActiveCard)
	}
	content := fmt.Sprintf("%s\n\n%s", card, InfoStyle.Render(fmt.Sprintf("%d left", m.view.DrawCount)))
	return ActiveCardStyle.Render(content)
}

func (m *Model) renderLane(i int) string {
	lane := m.view.Lanes[i]

	title := fmt.Sprintf("Lane %d", i+1)
	if m.view.ActiveCard != nil && !m.view.IsGameOver {
		o := run21.PreviewPlay(*m.view.ActiveCard, deck.FromCards(lane.Cards...))
		switch {
		case o.IsBust:
			title = ErrorStyle.Render(title)
		case o.Scores():
			title = SuccessStyle.Render(title)
		}
	}

	lines := []string{title}
	for _, c := range lane.Cards {
		lines = append(lines, formatCard(c))
	}
	if len(lane.Cards) > 0 {
		total := fmt.Sprintf("%d", lane.High)
		if lane.High != lane.Low {
			total = fmt.Sprintf("%d/%d", lane.High, lane.Low)
		}
		lines = append(lines, InfoStyle.Render(total))
	}
	return LaneStyle.Render(strings.Join(lines, "\n"))
}

// formatCard formats a card with its suit colour
func formatCard(card deck.Card) string {
	if card.IsRed() {
		return RedCardStyle.Render(card.String())
	}
	return BlackCardStyle.Render(card.String())
}

// Run plays s in the terminal until the player quits or ctx is done. The
// session clock runs for the lifetime of the program.
func Run(ctx context.Context, s *session.Session, logger *log.Logger, opts ...tea.ProgramOption) error {
	m := NewModel(s, logger)

	s.Start(ctx)
	defer s.Stop()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
