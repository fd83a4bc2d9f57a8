// Command client watches a running game as a spectator, or prints stored
// records with -records.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/rpc"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
	monopoly_rpc "github.com/wfunc/monopoly/rpc"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "spectator server address")
	roomID := flag.String("room", "", "room to watch")
	records := flag.String("records", "", "records service address; prints recent games and exits")
	limit := flag.Int("n", 10, "number of records to print")
	flag.Parse()

	logger.Init(false)
	defer logger.Sync()

	if *records != "" {
		if err := printRecords(*records, *limit); err != nil {
			logger.Log.Fatalf("records: %v", err)
		}
		return
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	conn := network.NewWSConnection(ws)
	defer conn.Close()

	join, _ := json.Marshal(network.JoinRoom{Room: *roomID})
	if err := conn.Send(network.MsgTypeJoinRoom, join); err != nil {
		logger.Log.Fatalf("Write error: %v", err)
	}

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			packet, err := conn.ReadPacket()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			show(packet)
		}
	}()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()
	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := conn.Send(network.MsgTypeHeartbeat, nil); err != nil {
				logger.Log.Infof("Write error: %v", err)
				return
			}
		case <-interrupt:
			logger.Log.Info("Interrupt received, closing connection.")
			err := ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				logger.Log.Infof("Write close error: %v", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}

func show(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
	case network.MsgTypeRoomState:
		var state network.RoomState
		if err := json.Unmarshal(packet.Data, &state); err != nil {
			logger.Log.Warnf("bad room state: %v", err)
			return
		}
		fmt.Printf("watching %s (%s, %d spectators)\n", state.Room, state.Status, state.Spectators)
		for _, e := range state.Backlog {
			fmt.Println(e.String())
		}
	case network.MsgTypeGameStart, network.MsgTypeGameEvent, network.MsgTypeGameEnd:
		var e event.Event
		if err := json.Unmarshal(packet.Data, &e); err != nil {
			logger.Log.Warnf("bad event: %v", err)
			return
		}
		fmt.Println(e.String())
	case network.MsgTypeError:
		var msg network.ErrorMessage
		json.Unmarshal(packet.Data, &msg)
		fmt.Printf("server: %s\n", msg.Reason)
	default:
		logger.Log.Debugf("ignoring message %d", packet.MsgID)
	}
}

func printRecords(addr string, limit int) error {
	client, err := rpc.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply monopoly_rpc.RecentReply
	if err := client.Call("Records.Recent", &monopoly_rpc.RecentArgs{Limit: limit}, &reply); err != nil {
		return err
	}
	for _, r := range reply.Records {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("%s  %s  winner %s  %d turns\n", r.EndedAt.Format(time.DateTime), r.GameID, winner, r.Turns)
		for _, p := range r.Players {
			fmt.Printf("    %s %-12s %s", p.PlayerID, p.Name, p.Outcome)
			if p.BankruptOrder > 0 {
				fmt.Printf(" (bankrupt #%d)", p.BankruptOrder)
			}
			fmt.Println()
		}
	}
	return nil
}
