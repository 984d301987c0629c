package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/wfunc/dhumbal/broadcast"
	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/network"
)

// roomState remembers the room the server last told us about.
type roomState struct {
	mutex   sync.Mutex
	code    string
	version uint64
}

// fresh reports whether v is newer than the last state seen for its room,
// and records it if so.
func (r *roomState) fresh(v broadcast.View) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if v.RoomCode == r.code && v.Version <= r.version {
		return false
	}
	r.code, r.version = v.RoomCode, v.Version
	return true
}

func (r *roomState) set(code string) {
	r.mutex.Lock()
	if code != r.code {
		r.code, r.version = code, 0
	}
	r.mutex.Unlock()
}

func (r *roomState) get() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.code
}

func main() {
	addr := flag.String("server", "ws://localhost:8080/ws", "server websocket url")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	conn, err := network.Dial(ctx, *addr)
	cancel()
	if err != nil {
		pterm.Fatal.Printfln("Dial %s failed: %v", *addr, err)
	}
	defer conn.Close()
	pterm.Success.Printfln("Connected to %s", *addr)
	pterm.Println(helpText)

	room := &roomState{}
	done := make(chan struct{})
	go readLoop(conn, room, done)
	go heartbeat(conn, done)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			pterm.Info.Println("Interrupt received, closing connection.")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgID, data, err := parseCommand(line, room.get())
			switch {
			case errors.Is(err, errQuit):
				return
			case errors.Is(err, errHelpOnly):
				pterm.Println(helpText)
				continue
			case err != nil:
				pterm.Warning.Println(err)
				continue
			}
			if msgID == network.MsgTypeLeaveRoom {
				room.set("")
			}
			if err := conn.Send(msgID, data); err != nil {
				pterm.Error.Printfln("Write error: %v", err)
				return
			}
		}
	}
}

func readLoop(conn *network.WSConnection, room *roomState, done chan<- struct{}) {
	defer close(done)
	for {
		p, err := conn.ReadPacket()
		if err != nil {
			pterm.Error.Printfln("Read error: %v", err)
			return
		}
		switch p.MsgID {
		case network.MsgTypeRoomCreated:
			var msg network.RoomCreated
			if json.Unmarshal(p.Data, &msg) == nil {
				room.set(msg.RoomCode)
				pterm.Success.Printfln("Room %s created. Share the code to invite players.", msg.RoomCode)
			}
		case network.MsgTypeState:
			var v broadcast.View
			if err := json.Unmarshal(p.Data, &v); err != nil {
				pterm.Warning.Printfln("bad state: %v", err)
				continue
			}
			if !room.fresh(v) {
				continue
			}
			renderState(v)
		case network.MsgTypeShowResult:
			var out game.ShowOutcome
			if json.Unmarshal(p.Data, &out) == nil {
				renderShowResult(out)
			}
		case network.MsgTypeError:
			var msg network.ErrorMessage
			if json.Unmarshal(p.Data, &msg) == nil {
				pterm.Error.Println(msg.Message)
			}
		}
	}
}

func heartbeat(conn *network.WSConnection, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Send(network.MsgTypeHeartbeat, nil); err != nil {
				return
			}
		}
	}
}
