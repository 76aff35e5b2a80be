package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/freerange/run21/internal/bot"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play a round in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Play many rounds with a built-in bot"`
	Serve    ServeCmd         `cmd:"" help:"Run the WebSocket game server"`
	Replay   ReplayCmd        `cmd:"" help:"Verify recorded round histories"`
	Bot      BotCmd           `cmd:"" help:"Play rounds on a running server with a built-in bot"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("run21"),
		kong.Description("Run21, the solitaire blackjack card game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
			"bots":    strings.Join(bot.Names(), ","),
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
