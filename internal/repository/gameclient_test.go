package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"leela_client/internal/bootstrap"
	"leela_client/internal/domain/game"
	"leela_client/internal/domain/gtp"
	"leela_client/internal/domain/review"
	errs "leela_client/internal/errors"
	"leela_client/internal/usecase/command"
)

type fakeServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	s := &fakeServer{conns: make(chan *websocket.Conn, 8)}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("client did not connect")
		return nil
	}
}

type serverMessage struct {
	Type string
	Data json.RawMessage
}

func readFromClient(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("server read failed: %v", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("client sent malformed envelope %s: %v", data, err)
	}
	return msg
}

func readGTPLine(t *testing.T, conn *websocket.Conn) (int64, string) {
	t.Helper()
	msg := readFromClient(t, conn)
	if msg.Type != MessageTypeGTP {
		t.Fatalf("type = %q; want gtp", msg.Type)
	}
	var line string
	if err := json.Unmarshal(msg.Data, &line); err != nil {
		t.Fatal(err)
	}
	fields := strings.Fields(line)
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		t.Fatalf("gtp line %q has no id", line)
	}
	return id, strings.Join(fields[1:], " ")
}

func writeToClient(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"type": typ, "data": data})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
}

func newTestClient(t *testing.T, url string) *GameClient {
	t.Helper()
	cfg := &bootstrap.Config{GameServerUrl: url, ReconnectDelay: 50 * time.Millisecond}
	c := NewGameClient(cfg, zap.NewNop().Sugar())
	t.Cleanup(func() { c.Close() })
	return c
}

func openClient(t *testing.T) (*GameClient, *fakeServer, *websocket.Conn) {
	t.Helper()
	s := newFakeServer(t)
	c := newTestClient(t, s.url())
	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c, s, s.accept(t)
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestOutOfOrderResponses(t *testing.T) {
	c, _, conn := openClient(t)

	futures := make([]*Future[string], 3)
	for i := range futures {
		f, err := c.Send(command.Genmove(gtp.ColorBlack))
		if err != nil {
			t.Fatal(err)
		}
		if f.ID() != int64(i+1) {
			t.Fatalf("future %d has id %d", i, f.ID())
		}
		futures[i] = f
	}

	for i := 0; i < 3; i++ {
		if _, cmd := readGTPLine(t, conn); cmd != "genmove B" {
			t.Fatalf("server got %q", cmd)
		}
	}

	for _, id := range []int{3, 1, 2} {
		writeToClient(t, conn, MessageTypeGTP, fmt.Sprintf("=%d move-%d\n\n", id, id))
	}

	ctx := waitCtx(t)
	for i, f := range futures {
		text, err := f.Wait(ctx)
		if err != nil {
			t.Fatalf("future %d: %v", i+1, err)
		}
		resp, err := gtp.ParseResponse(text)
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("move-%d", i+1); resp.Content != want {
			t.Fatalf("future %d got %q; want %q", i+1, resp.Content, want)
		}
	}
}

func TestSharedCounterAcrossKinds(t *testing.T) {
	c, _, conn := openClient(t)

	f1, err := c.Send(command.Name())
	if err != nil {
		t.Fatal(err)
	}
	f2, err := c.SendSystem(SysRequestAI, nil)
	if err != nil {
		t.Fatal(err)
	}
	f3, err := c.Send(command.Version())
	if err != nil {
		t.Fatal(err)
	}
	if f1.ID() != 1 || f2.ID() != 2 || f3.ID() != 3 {
		t.Fatalf("ids = %d %d %d", f1.ID(), f2.ID(), f3.ID())
	}

	readGTPLine(t, conn)
	sys := readFromClient(t, conn)
	if sys.Type != MessageTypeSys {
		t.Fatalf("type = %q", sys.Type)
	}
	var body struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(sys.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != 2 || body.Name != SysRequestAI {
		t.Fatalf("sys body = %+v", body)
	}
	readGTPLine(t, conn)

	writeToClient(t, conn, MessageTypeSys, map[string]any{"id": 2, "args": []any{true, 4}})
	writeToClient(t, conn, MessageTypeGTP, "=1 Leela Zero\n\n")
	writeToClient(t, conn, MessageTypeGTP, "=3 0.17\n\n")

	ctx := waitCtx(t)
	args, err := f2.Wait(ctx)
	if err != nil || string(args) != "[true,4]" {
		t.Fatalf("sys args = %s, %v", args, err)
	}
	if text, _ := f1.Wait(ctx); !strings.Contains(text, "Leela Zero") {
		t.Fatalf("f1 = %q", text)
	}
	if text, _ := f3.Wait(ctx); !strings.Contains(text, "0.17") {
		t.Fatalf("f3 = %q", text)
	}
}

func TestUnknownAndMalformedMessagesAreDropped(t *testing.T) {
	c, _, conn := openClient(t)

	f, err := c.Send(command.Genmove(gtp.ColorWhite))
	if err != nil {
		t.Fatal(err)
	}
	readGTPLine(t, conn)

	writeToClient(t, conn, MessageTypeGTP, "=99 K10\n\n")
	writeToClient(t, conn, MessageTypeSys, map[string]any{"id": 42, "args": "x"})
	writeToClient(t, conn, MessageTypeGTP, "not a response")
	writeToClient(t, conn, "bogus", nil)
	_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

	select {
	case <-f.Done():
		t.Fatal("future resolved by an unrelated message")
	case <-time.After(100 * time.Millisecond):
	}

	writeToClient(t, conn, MessageTypeGTP, "=1 Q16\n\n")
	text, err := f.Wait(waitCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "=1 Q16") {
		t.Fatalf("got %q", text)
	}
	if !c.Connected() {
		t.Fatal("malformed input closed the connection")
	}
}

func TestConnectionLossFailsPendingAndReconnects(t *testing.T) {
	s := newFakeServer(t)
	c := newTestClient(t, s.url())

	var connects atomic.Int32
	reconnected := make(chan struct{}, 4)
	c.OnConnected(func() {
		connects.Add(1)
		reconnected <- struct{}{}
	})

	if err := c.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := s.accept(t)
	<-reconnected

	f, err := c.Send(command.Genmove(gtp.ColorBlack))
	if err != nil {
		t.Fatal(err)
	}
	readGTPLine(t, conn)
	conn.Close()

	if _, err := f.Wait(waitCtx(t)); !errors.Is(err, errs.ErrConnectionLost) {
		t.Fatalf("err = %v; want ErrConnectionLost", err)
	}

	conn2 := s.accept(t)
	select {
	case <-reconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnected not fired after reconnect")
	}
	if connects.Load() != 2 {
		t.Fatalf("connects = %d", connects.Load())
	}

	f2, err := c.Send(command.Name())
	if err != nil {
		t.Fatal(err)
	}
	if f2.ID() != 2 {
		t.Fatalf("id after reconnect = %d; want 2", f2.ID())
	}
	readGTPLine(t, conn2)
	writeToClient(t, conn2, MessageTypeGTP, "=2 KataGo\n\n")
	if _, err := f2.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
}

func TestSendWithoutConnection(t *testing.T) {
	c := newTestClient(t, "ws://127.0.0.1:1")
	if _, err := c.Send(command.Name()); !errors.Is(err, errs.ErrNotConnected) {
		t.Fatalf("Send err = %v", err)
	}
	if _, err := c.SendSystem(SysRequestAI, nil); !errors.Is(err, errs.ErrNotConnected) {
		t.Fatalf("SendSystem err = %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v", c.State())
	}
}

func TestCloseFailsPendingAndStopsReconnect(t *testing.T) {
	c, s, conn := openClient(t)

	f, err := c.Send(command.Genmove(gtp.ColorBlack))
	if err != nil {
		t.Fatal(err)
	}
	readGTPLine(t, conn)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.Wait(waitCtx(t)); !errors.Is(err, errs.ErrClientClosed) {
		t.Fatalf("err = %v; want ErrClientClosed", err)
	}

	select {
	case <-s.conns:
		t.Fatal("client reconnected after Close")
	case <-time.After(200 * time.Millisecond):
	}
	if err := c.Open(context.Background()); !errors.Is(err, errs.ErrClientClosed) {
		t.Fatalf("Open after Close = %v", err)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	c, _, conn := openClient(t)

	f, err := c.Send(command.ShowBoard())
	if err != nil {
		t.Fatal(err)
	}
	readGTPLine(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}

	writeToClient(t, conn, MessageTypeGTP, "=1 board\n\n")
	if _, err := f.Wait(waitCtx(t)); err != nil {
		t.Fatalf("late response: %v", err)
	}
}

func TestReviewPushes(t *testing.T) {
	c, _, conn := openClient(t)

	states := make(chan review.RoomState, 1)
	messages := make(chan string, 1)
	c.OnReviewRoomState(func(s review.RoomState) { states <- s })
	unsubscribe := c.OnReviewRoomMessage(func(m string) { messages <- m })

	writeToClient(t, conn, MessageTypeSys, map[string]any{
		"name": SysReviewRoomState,
		"args": map[string]any{"roomId": "r1", "cursor": 3, "history": []any{}},
	})
	writeToClient(t, conn, MessageTypeSys, map[string]any{"name": SysReviewRoomMessage, "args": "look at D4"})

	select {
	case s := <-states:
		if s.RoomID != "r1" || s.TreeState().Cursor != 3 || s.TreeState().HistoryCursor != -1 {
			t.Fatalf("state = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state push")
	}
	select {
	case m := <-messages:
		if m != "look at D4" {
			t.Fatalf("message = %q", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message push")
	}

	unsubscribe()
	writeToClient(t, conn, MessageTypeSys, map[string]any{"name": SysReviewRoomMessage, "args": "ignored"})
	select {
	case m := <-messages:
		t.Fatalf("unsubscribed handler got %q", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEnterReviewRoom(t *testing.T) {
	c, _, conn := openClient(t)
	ctx := waitCtx(t)

	type result struct {
		info *review.RoomInfo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		info, err := c.EnterReviewRoom(ctx, review.RoomEntry{RoomID: "r1", UUID: "u1", Nickname: "n"})
		done <- result{info, err}
	}()

	msg := readFromClient(t, conn)
	var body struct {
		ID   int64            `json:"id"`
		Name string           `json:"name"`
		Args review.RoomEntry `json:"args"`
	}
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != SysEnterReviewRoom || body.Args.RoomID != "r1" || body.Args.UUID != "u1" {
		t.Fatalf("entry = %+v", body)
	}
	writeToClient(t, conn, MessageTypeSys, map[string]any{
		"id":   body.ID,
		"args": map[string]any{"isOwner": true, "sgf": "(;SZ[19])", "owner": "honinbo"},
	})

	res := <-done
	if res.err != nil || res.info == nil || !res.info.IsOwner || res.info.Owner != "honinbo" {
		t.Fatalf("result = %+v, %v", res.info, res.err)
	}

	go func() {
		info, err := c.EnterReviewRoom(ctx, review.RoomEntry{RoomID: "missing"})
		done <- result{info, err}
	}()
	msg = readFromClient(t, conn)
	_ = json.Unmarshal(msg.Data, &body)
	writeToClient(t, conn, MessageTypeSys, map[string]any{"id": body.ID, "args": nil})

	res = <-done
	if res.err != nil || res.info != nil {
		t.Fatalf("missing room = %+v, %v", res.info, res.err)
	}
}

func TestInitBoardCommandSequence(t *testing.T) {
	c, _, conn := openClient(t)

	ctx := waitCtx(t)
	done := make(chan error, 1)
	go func() {
		done <- c.InitBoard(ctx, game.BoardConfig{Size: 19, Komi: 7.5, Handicap: 2, TimeMinutes: 10})
	}()

	want := []string{"boardsize 19", "clear_board", "komi 7.5", "fixed_handicap 2", "time_settings 600 1500 25"}
	ids := make([]int64, 0, len(want))
	for _, w := range want {
		id, cmd := readGTPLine(t, conn)
		if cmd != w {
			t.Fatalf("command = %q; want %q", cmd, w)
		}
		ids = append(ids, id)
	}
	for i := len(ids) - 1; i >= 0; i-- {
		writeToClient(t, conn, MessageTypeGTP, fmt.Sprintf("=%d\n\n", ids[i]))
	}

	if err := <-done; err != nil {
		t.Fatalf("InitBoard: %v", err)
	}
}

func TestExecEngineFailure(t *testing.T) {
	c, _, conn := openClient(t)

	ctx := waitCtx(t)
	done := make(chan error, 1)
	go func() {
		_, err := c.Exec(ctx, command.Play(gtp.ColorBlack, "D4"))
		done <- err
	}()
	id, _ := readGTPLine(t, conn)
	writeToClient(t, conn, MessageTypeGTP, fmt.Sprintf("?%d illegal move\n\n", id))

	if err := <-done; !errors.Is(err, errs.ErrEngineFailure) {
		t.Fatalf("err = %v", err)
	}
}
