package srv

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	// owned by the reader goroutine
	name      string
	durableID string
	room      *Room
	team      string
}

// sendJSON never blocks the simulation: a client that cannot drain its send
// channel loses the message and reconciles from the next snapshot.
func sendJSON(c *client, typ string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Send] marshal %s: %v", typ, err)
		return
	}
	b, err := json.Marshal(protocol.MsgEnvelope{Type: typ, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func sendError(c *client, msg string) {
	sendJSON(c, "error", protocol.ErrorMsg{Message: msg})
}

// Hub owns the client set and the room registry. It never calls into a room
// while holding its own lock; registry access is snapshot-then-release.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	rooms   map[string]*Room

	store  *Store
	signer *Signer
}

func NewHub(store *Store, signer *Signer) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]*Room),
		store:   store,
		signer:  signer,
	}
}

// Rehydrate rebuilds rooms from the state file at startup.
func (h *Hub) Rehydrate() {
	for id, rs := range h.store.RoomStates() {
		r := NewRoomFromSnapshot(rs, h)
		h.mu.Lock()
		h.rooms[id] = r
		h.mu.Unlock()
		log.Printf("[Restore] Room %s (%s, wave %d)", id, rs.State, rs.WaveNumber)
		r.StartLoop()
	}
}

// Run drives the periodic persistence flush and the idle-room sweeper.
func (h *Hub) Run() {
	persist := time.NewTicker(5 * time.Second)
	sweep := time.NewTicker(30 * time.Second)
	defer persist.Stop()
	defer sweep.Stop()
	for {
		select {
		case <-persist.C:
			h.persistNow()
		case <-sweep.C:
			h.sweep()
		}
	}
}

func (h *Hub) roomList() []*Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

func (h *Hub) room(id string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[id]
}

func (h *Hub) persistNow() {
	for _, r := range h.roomList() {
		rs := r.Snapshot()
		if rs.State != statePlaying && rs.State != statePaused {
			continue
		}
		h.store.SetRoomState(rs)
	}
	if err := h.store.Save(); err != nil {
		log.Printf("[Store] save: %v", err)
	}
}

// sweep drops rooms nobody will come back to and state-file entries no live
// room or session refers to.
func (h *Hub) sweep() {
	for _, r := range h.roomList() {
		info := r.Info()
		if info.State == statePlaying || info.State == statePaused {
			continue
		}
		r.mu.Lock()
		abandoned := !r.anyRealConnectedLocked()
		r.mu.Unlock()
		if !abandoned {
			continue
		}
		r.Shutdown()
		h.mu.Lock()
		delete(h.rooms, info.ID)
		h.mu.Unlock()
		h.store.DeleteRoomState(info.ID)
		log.Printf("[Cleanup] removed idle room %s", info.ID)
	}

	sessions := h.store.Sessions()
	referenced := make(map[string]bool)
	for _, sess := range sessions {
		referenced[sess.RoomID] = true
	}
	for id := range h.store.RoomStates() {
		if referenced[id] {
			continue
		}
		if h.room(id) != nil {
			continue
		}
		h.store.DeleteRoomState(id)
		log.Printf("[Cleanup] dropped orphan state for room %s", id)
	}
}

// finishMatch runs under the ending room's lock: registry and store updates
// only, with the file flush pushed to a goroutine since it re-enters rooms.
func (h *Hub) finishMatch(roomID string, entry protocol.LeaderboardEntry, durableIDs []string) {
	h.store.AppendLeaderboard(entry)
	for _, id := range durableIDs {
		h.store.DeleteSession(id)
	}
	h.store.DeleteRoomState(roomID)
	h.mu.Lock()
	delete(h.rooms, roomID)
	h.mu.Unlock()
	go h.persistNow()
}

// ---- websocket endpoint ----

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256), name: "Guest"}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go h.writer(c)
	go h.reader(c)
}

func (h *Hub) writer(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) reader(c *client) {
	defer func() {
		if c.room != nil {
			c.room.HandleDisconnect(c)
		}
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.MsgEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sendError(c, "bad envelope")
			continue
		}
		h.dispatch(c, env)
	}
}

func (h *Hub) dispatch(c *client, env protocol.MsgEnvelope) {
	switch env.Type {

	case "createRoom":
		var msg protocol.CreateRoom
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			sendError(c, "bad createRoom")
			return
		}
		mode := msg.Mode
		if mode < 1 {
			mode = 1
		}
		if mode > 5 {
			mode = 5
		}
		id := "R" + strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
		room := NewRoom(id, mode, msg.MaxWaves, c.name, h)
		h.mu.Lock()
		h.rooms[id] = room
		h.mu.Unlock()
		log.Printf("[Create] room=%s mode=%dv%d by=%s", id, mode, mode, c.name)
		sendJSON(c, "createRoomResult", protocol.CreateRoomResult{
			Success: true, RoomID: id, Mode: mode, MaxWaves: room.Info().MaxWaves,
		})

	case "joinRoom":
		var msg protocol.JoinRoom
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			sendError(c, "bad joinRoom")
			return
		}
		room := h.room(msg.RoomID)
		if room == nil {
			sendJSON(c, "joinRoomResult", protocol.JoinRoomResult{Success: false, Error: "room not found"})
			return
		}
		if c.durableID == "" {
			c.durableID = uuid.NewString()
		}
		res, ok := room.Join(c, c.durableID, c.name, msg.Team)
		if !ok {
			sendJSON(c, "joinRoomResult", res)
			return
		}
		c.room = room
		c.team = msg.Team
		token, err := h.signer.Mint(c.durableID, c.name)
		if err != nil {
			log.Printf("[Join] mint token: %v", err)
		}
		res.DurableID = c.durableID
		res.Token = token
		h.store.SetSession(c.durableID, Session{RoomID: msg.RoomID, Team: msg.Team, Name: c.name})
		sendJSON(c, "joinRoomResult", res)
		h.persistNow()

	case "addBot":
		var msg protocol.AddBot
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil {
			sendJSON(c, "addBotResult", protocol.AddBotResult{Success: false, Error: "not in a room"})
			return
		}
		ok, reason := c.room.AddBot(msg.Team)
		sendJSON(c, "addBotResult", protocol.AddBotResult{Success: ok, Error: reason})

	case "listRooms":
		rooms := h.roomList()
		items := make([]protocol.RoomInfo, 0, len(rooms))
		for _, r := range rooms {
			info := r.Info()
			if info.State == stateEnded {
				continue
			}
			items = append(items, info)
		}
		sendJSON(c, "roomList", protocol.RoomList{Items: items})

	case "getLeaderboard":
		sendJSON(c, "leaderboard", protocol.Leaderboard{Items: h.store.Recent(20)})

	case "restore":
		var msg protocol.Restore
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			sendJSON(c, "restoreResult", protocol.RestoreResult{Restored: false})
			return
		}
		subject, err := h.signer.Verify(msg.Token)
		if err != nil || subject != msg.DurableID {
			sendJSON(c, "restoreResult", protocol.RestoreResult{Restored: false})
			return
		}
		sess, ok := h.store.Session(msg.DurableID)
		if !ok {
			sendJSON(c, "restoreResult", protocol.RestoreResult{Restored: false})
			return
		}
		room := h.room(sess.RoomID)
		if room == nil {
			h.store.DeleteSession(msg.DurableID)
			sendJSON(c, "restoreResult", protocol.RestoreResult{Restored: false})
			return
		}
		res, team, ok := room.Restore(c, msg.DurableID, msg.Name)
		if !ok {
			sendJSON(c, "restoreResult", protocol.RestoreResult{Restored: false})
			return
		}
		c.durableID = msg.DurableID
		c.room = room
		c.team = team
		if msg.Name != "" {
			c.name = msg.Name
		} else if sess.Name != "" {
			c.name = sess.Name
		}
		sendJSON(c, "restoreResult", res)

	case "setName":
		var msg protocol.SetName
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		name := strings.TrimSpace(msg.Name)
		if name == "" {
			return
		}
		if len(name) > 24 {
			name = name[:24]
		}
		c.name = name
		if c.room != nil {
			c.room.Rename(c.durableID, name)
		}
		if c.durableID != "" {
			if sess, ok := h.store.Session(c.durableID); ok {
				sess.Name = name
				h.store.SetSession(c.durableID, sess)
			}
		}

	case "placePlant":
		var msg protocol.PlacePlant
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil || c.team != "plants" {
			return
		}
		c.room.PlacePlant(msg.Type, msg.Col, msg.Row, c.name)

	case "removePlant":
		var msg protocol.RemovePlant
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil || c.team != "plants" {
			return
		}
		c.room.RemovePlant(msg.Col, msg.Row, c.name)

	case "spawnZombie":
		var msg protocol.SpawnZombie
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil || c.team != "zombies" {
			return
		}
		c.room.SpawnZombie(msg.Type, msg.Row, c.name)

	case "buyWave":
		if c.room == nil || c.team != "zombies" {
			return
		}
		c.room.BuyWave(c.name)

	case "collectSun":
		var msg protocol.CollectSun
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil || c.team != "plants" {
			return
		}
		amount := msg.Amount
		if amount <= 0 {
			amount = 25
		}
		c.room.CollectSun(amount)

	case "collectBrain":
		var msg protocol.CollectBrain
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil || c.team != "zombies" {
			return
		}
		amount := msg.Amount
		if amount <= 0 {
			amount = 25
		}
		c.room.CollectBrain(amount)

	case "chat":
		var msg protocol.Chat
		if err := json.Unmarshal(env.Data, &msg); err != nil || c.room == nil {
			return
		}
		text := strings.TrimSpace(msg.Message)
		if text == "" {
			return
		}
		if len(text) > protocol.ChatMaxLen {
			text = text[:protocol.ChatMaxLen]
		}
		c.room.SendChat(c.name, text)

	case "leaveRoom":
		if c.room == nil {
			return
		}
		room := c.room
		c.room = nil
		c.team = ""
		if room.RemoveBySocket(c, false) {
			h.removeRoom(room)
		}
		if c.durableID != "" {
			h.store.DeleteSession(c.durableID)
		}

	case "leaveGame":
		var msg protocol.LeaveGame
		_ = json.Unmarshal(env.Data, &msg)
		if c.room == nil {
			return
		}
		room := c.room
		c.room = nil
		c.team = ""
		if room.RemoveByDurable(c.durableID) {
			h.removeRoom(room)
		}
		if c.durableID != "" {
			h.store.DeleteSession(c.durableID)
		}

	default:
		sendError(c, "unknown message type "+env.Type)
	}
}

func (h *Hub) removeRoom(room *Room) {
	info := room.Info()
	room.Shutdown()
	h.mu.Lock()
	delete(h.rooms, info.ID)
	h.mu.Unlock()
	h.store.DeleteRoomState(info.ID)
	log.Printf("[Cleanup] removed room %s", info.ID)
}
