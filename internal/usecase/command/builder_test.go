package command

import (
	"encoding/json"
	"reflect"
	"testing"

	"leela_client/internal/domain/gtp"
)

func TestZeroArgCommandsOmitArgs(t *testing.T) {
	cmds := map[string]gtp.Command{
		"name":             Name(),
		"version":          Version(),
		"protocol_version": ProtocolVersion(),
		"list_commands":    ListCommands(),
		"quit":             Quit(),
		"clear_board":      ClearBoard(),
		"undo":             Undo(),
		"final_score":      FinalScore(),
		"showboard":        ShowBoard(),
		"heatmap":          Heatmap(),
	}
	for name, cmd := range cmds {
		if cmd.Name != name {
			t.Errorf("name = %q; want %q", cmd.Name, name)
		}
		if cmd.Args != nil {
			t.Errorf("%s: args = %v; want nil", name, cmd.Args)
		}
		if cmd.ID != nil {
			t.Errorf("%s: id set by builder", name)
		}
		data, _ := json.Marshal(cmd)
		var raw map[string]any
		_ = json.Unmarshal(data, &raw)
		if _, ok := raw["args"]; ok {
			t.Errorf("%s: args present on the wire: %s", name, data)
		}
	}
}

func TestArgumentOrder(t *testing.T) {
	cases := []struct {
		cmd      gtp.Command
		wantName string
		wantArgs []any
	}{
		{KnownCommand("genmove"), "known_command", []any{"genmove"}},
		{BoardSize(9), "boardsize", []any{9}},
		{BoardSize(0), "boardsize", []any{19}},
		{Komi(DefaultKomi), "komi", []any{6.5}},
		{LoadSGF("(;SZ[19])"), "loadsgf", []any{"(;SZ[19])"}},
		{FixedHandicap(4), "fixed_handicap", []any{4}},
		{PlaceFreeHandicap(3), "place_free_handicap", []any{3}},
		{SetFreeHandicap(2), "set_free_handicap", []any{2}},
		{Play(gtp.ColorBlack, "D4"), "play", []any{gtp.ColorBlack, "D4"}},
		{Genmove(gtp.ColorWhite), "genmove", []any{gtp.ColorWhite}},
		{TimeSettings(600, 1500, 25), "time_settings", []any{600, 1500, 25}},
		{TimeLeft(gtp.ColorBlack, 30, 5), "time_left", []any{gtp.ColorBlack, 30, 5}},
		{FinalStatusList("dead"), "final_status_list", []any{"dead"}},
	}
	for _, tc := range cases {
		if tc.cmd.Name != tc.wantName {
			t.Errorf("name = %q; want %q", tc.cmd.Name, tc.wantName)
		}
		if !reflect.DeepEqual(tc.cmd.Args, tc.wantArgs) {
			t.Errorf("%s args = %#v; want %#v", tc.wantName, tc.cmd.Args, tc.wantArgs)
		}
	}
}

func TestEncodedLines(t *testing.T) {
	if got := Play(gtp.ColorWhite, "Q16").WithID(5).String(); got != "5 play W Q16" {
		t.Fatalf("got %q", got)
	}
	if got := Komi(7.5).String(); got != "komi 7.5" {
		t.Fatalf("got %q", got)
	}
}
