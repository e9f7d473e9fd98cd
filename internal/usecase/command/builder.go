package command

import "leela_client/internal/domain/gtp"

const (
	DefaultBoardSize = 19
	DefaultKomi      = 6.5
)

func Name() gtp.Command            { return gtp.Command{Name: "name"} }
func Version() gtp.Command         { return gtp.Command{Name: "version"} }
func ProtocolVersion() gtp.Command { return gtp.Command{Name: "protocol_version"} }
func ListCommands() gtp.Command    { return gtp.Command{Name: "list_commands"} }
func Quit() gtp.Command            { return gtp.Command{Name: "quit"} }
func ClearBoard() gtp.Command      { return gtp.Command{Name: "clear_board"} }
func Undo() gtp.Command            { return gtp.Command{Name: "undo"} }
func FinalScore() gtp.Command      { return gtp.Command{Name: "final_score"} }
func ShowBoard() gtp.Command       { return gtp.Command{Name: "showboard"} }

// Heatmap is the Leela Zero extension that prints policy values.
func Heatmap() gtp.Command { return gtp.Command{Name: "heatmap"} }

func KnownCommand(cmd string) gtp.Command {
	return gtp.Command{Name: "known_command", Args: []any{cmd}}
}

// BoardSize falls back to DefaultBoardSize for non-positive sizes.
func BoardSize(size int) gtp.Command {
	if size <= 0 {
		size = DefaultBoardSize
	}
	return gtp.Command{Name: "boardsize", Args: []any{size}}
}

func Komi(value float64) gtp.Command {
	return gtp.Command{Name: "komi", Args: []any{value}}
}

func LoadSGF(text string) gtp.Command {
	return gtp.Command{Name: "loadsgf", Args: []any{text}}
}

func FixedHandicap(stones int) gtp.Command {
	return gtp.Command{Name: "fixed_handicap", Args: []any{stones}}
}

func PlaceFreeHandicap(stones int) gtp.Command {
	return gtp.Command{Name: "place_free_handicap", Args: []any{stones}}
}

func SetFreeHandicap(stones int) gtp.Command {
	return gtp.Command{Name: "set_free_handicap", Args: []any{stones}}
}

func Play(color gtp.Color, move string) gtp.Command {
	return gtp.Command{Name: "play", Args: []any{color, move}}
}

func Genmove(color gtp.Color) gtp.Command {
	return gtp.Command{Name: "genmove", Args: []any{color}}
}

func TimeSettings(mainTime, byoYomiSeconds, byoYomiStones int) gtp.Command {
	return gtp.Command{Name: "time_settings", Args: []any{mainTime, byoYomiSeconds, byoYomiStones}}
}

func TimeLeft(color gtp.Color, time, stones int) gtp.Command {
	return gtp.Command{Name: "time_left", Args: []any{color, time, stones}}
}

func FinalStatusList(status string) gtp.Command {
	return gtp.Command{Name: "final_status_list", Args: []any{status}}
}
