package srv

import (
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

const (
	stateWaiting = "waiting"
	statePlaying = "playing"
	statePaused  = "paused"
	stateEnded   = "ended"
)

var botNames = []string{"Sunny AI", "Rosie AI", "Spike AI"}

// playerSlot is a seat in a room. The durable id outlives the connection;
// c is nil while the player is disconnected (or always, for bots).
type playerSlot struct {
	id    string
	name  string
	isBot bool
	c     *client

	// bot timers, advanced by the tick
	collectTimer   int
	strategyTimer  int
	strategyPeriod int
}

// Room owns one match: the slots on both sides, the lifecycle state machine
// and the tick goroutine. Every public method locks mu; the Game underneath
// is only ever touched under that lock, which serializes intents and ticks.
type Room struct {
	mu       sync.Mutex
	id       string
	mode     int // seats per side
	hostName string
	state    string
	g        *Game

	plantSlots  []*playerSlot
	zombieSlots []*playerSlot

	chat     []protocol.ChatMsg
	lastSnap time.Time

	hub  *Hub
	stop chan struct{}
	rng  *rand.Rand
}

func NewRoom(id string, mode, maxWaves int, hostName string, h *Hub) *Room {
	if mode < 1 {
		mode = 1
	}
	r := &Room{
		id:       id,
		mode:     mode,
		hostName: hostName,
		state:    stateWaiting,
		g:        NewGame(mode, maxWaves),
		hub:      h,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.g.broadcast = r.broadcastLocked
	r.g.broadcastTo = r.broadcastTeamLocked
	return r
}

// ---- broadcast plumbing (callers hold r.mu) ----

func (r *Room) broadcastLocked(typ string, v interface{}) {
	for _, s := range r.plantSlots {
		if s.c != nil {
			sendJSON(s.c, typ, v)
		}
	}
	for _, s := range r.zombieSlots {
		if s.c != nil {
			sendJSON(s.c, typ, v)
		}
	}
}

func (r *Room) broadcastTeamLocked(team, typ string, v interface{}) {
	slots := r.plantSlots
	if team == "zombies" {
		slots = r.zombieSlots
	}
	for _, s := range slots {
		if s.c != nil {
			sendJSON(s.c, typ, v)
		}
	}
}

func (r *Room) playerListLocked() protocol.PlayerList {
	toInfo := func(slots []*playerSlot) []protocol.PlayerInfo {
		out := make([]protocol.PlayerInfo, 0, len(slots))
		for _, s := range slots {
			out = append(out, protocol.PlayerInfo{ID: s.id, Name: s.name, IsBot: s.isBot})
		}
		return out
	}
	return protocol.PlayerList{Plants: toInfo(r.plantSlots), Zombies: toInfo(r.zombieSlots)}
}

func (r *Room) infoLocked() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID: r.id, Mode: r.mode, MaxWaves: r.g.maxWaves, HostName: r.hostName,
		Plants: len(r.plantSlots), Zombies: len(r.zombieSlots), State: r.state,
	}
}

func (r *Room) playerUpdateLocked() {
	r.broadcastLocked("playerUpdate", protocol.PlayerUpdate{
		PlayerList: r.playerListLocked(), Info: r.infoLocked(),
	})
}

func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

// ---- lifecycle ----

func (r *Room) startGameLocked() {
	r.state = statePlaying
	r.g.waveNumber = 0
	r.g.nextWaveMs = 15000 // first free wave after a grace period
	r.broadcastLocked("gameStart", protocol.GameStart{
		PlayerList: r.playerListLocked(), Mode: r.mode, MaxWaves: r.g.maxWaves,
		GameState: r.g.State(),
	})
	r.startLoopLocked()
}

func (r *Room) startLoopLocked() {
	if r.stop != nil {
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	go r.run(stop)
}

func (r *Room) stopLoopLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *Room) run(stop chan struct{}) {
	ticker := time.NewTicker(protocol.TickMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick runs one fixed-interval combat pass and the throttled snapshot.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.tickBots(protocol.TickMs)
	r.g.Update(protocol.TickMs)
	if w := r.g.winner; w != "" {
		r.endGameLocked(w)
		return
	}
	if time.Since(r.lastSnap) >= protocol.SnapshotMs*time.Millisecond {
		r.lastSnap = time.Now()
		r.broadcastLocked("gameUpdate", r.g.tickUpdate())
	}
}

func (r *Room) pauseLocked(reason string) {
	if r.state != statePlaying {
		return
	}
	r.state = statePaused
	r.stopLoopLocked()
	r.broadcastLocked("gamePaused", protocol.GamePaused{Reason: reason})
	r.systemChatLocked("Game paused: " + reason)
}

func (r *Room) resumeLocked() {
	if r.state != statePaused {
		return
	}
	r.state = statePlaying
	r.broadcastLocked("gameResumed", protocol.GameResumed{})
	r.systemChatLocked("Game on!")
	r.startLoopLocked()
}

func (r *Room) endGameLocked(winner string) {
	if r.state == stateEnded {
		return
	}
	r.state = stateEnded
	r.stopLoopLocked()

	names := func(slots []*playerSlot) string {
		var real []string
		for _, s := range slots {
			if !s.isBot {
				real = append(real, s.name)
			}
		}
		if len(real) == 0 {
			return "AI"
		}
		return strings.Join(real, ", ")
	}
	entry := protocol.LeaderboardEntry{
		Date:          time.Now().Format(time.RFC3339),
		Winner:        winner,
		WaveNumber:    r.g.waveNumber,
		Mode:          r.mode,
		PlantPlayers:  names(r.plantSlots),
		ZombiePlayers: names(r.zombieSlots),
	}
	var durableIDs []string
	for _, s := range append(append([]*playerSlot{}, r.plantSlots...), r.zombieSlots...) {
		if !s.isBot {
			durableIDs = append(durableIDs, s.id)
		}
	}
	r.broadcastLocked("gameEnd", protocol.GameEnd{Winner: winner, WaveNumber: r.g.waveNumber})
	log.Printf("[End] room=%s winner=%s wave=%d", r.id, winner, r.g.waveNumber)
	r.hub.finishMatch(r.id, entry, durableIDs)
}

// StartLoop restarts the tick goroutine of a rehydrated playing room.
func (r *Room) StartLoop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == statePlaying {
		r.startLoopLocked()
	}
}

// Shutdown stops the tick goroutine regardless of state (sweeper teardown).
func (r *Room) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLoopLocked()
}

// ---- membership ----

// Join seats a connected player. Allowed while waiting (filling up) or
// paused (a fresh player may take a vacated seat). A full room starts; a
// paused room resumes as soon as a real player is in.
func (r *Room) Join(c *client, durableID, name, team string) (protocol.JoinRoomResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateWaiting && r.state != statePaused {
		return protocol.JoinRoomResult{Success: false, Error: "room not joinable"}, false
	}
	slots := &r.plantSlots
	if team == "zombies" {
		slots = &r.zombieSlots
	} else if team != "plants" {
		return protocol.JoinRoomResult{Success: false, Error: "bad team"}, false
	}
	if len(*slots) >= r.mode {
		return protocol.JoinRoomResult{Success: false, Error: "team full"}, false
	}
	*slots = append(*slots, &playerSlot{id: durableID, name: name, c: c})
	log.Printf("[Join] room=%s player=%s team=%s", r.id, name, team)

	r.playerUpdateLocked()
	if r.state == statePaused && !r.sideAbandonedLocked() {
		r.resumeLocked()
	} else if r.state == stateWaiting && len(r.plantSlots) >= r.mode && len(r.zombieSlots) >= r.mode {
		r.startGameLocked()
	}
	return protocol.JoinRoomResult{
		Success: true, Team: team, Mode: r.mode, MaxWaves: r.g.maxWaves,
		State: r.state, PlayerList: r.playerListLocked(), GameState: r.g.State(),
	}, true
}

func (r *Room) AddBot(team string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots := &r.plantSlots
	if team == "zombies" {
		slots = &r.zombieSlots
	} else if team != "plants" {
		return false, "bad team"
	}
	if len(*slots) >= r.mode {
		return false, "team full"
	}
	bot := &playerSlot{
		id:             "bot-" + uuid.NewString(),
		name:           botNames[r.rng.Intn(len(botNames))],
		isBot:          true,
		strategyPeriod: botStrategyBaseMs + r.rng.Intn(botStrategyBaseMs),
	}
	*slots = append(*slots, bot)
	r.playerUpdateLocked()
	if r.state == stateWaiting && len(r.plantSlots) >= r.mode && len(r.zombieSlots) >= r.mode {
		r.startGameLocked()
	}
	return true, ""
}

// Restore rebinds a reconnecting player to their seat and hands back the
// same bootstrap a joiner gets, plus recent chat.
func (r *Room) Restore(c *client, durableID, name string) (protocol.RestoreResult, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var slot *playerSlot
	team := "plants"
	for _, s := range r.plantSlots {
		if !s.isBot && s.id == durableID {
			slot = s
			break
		}
	}
	if slot == nil {
		for _, s := range r.zombieSlots {
			if !s.isBot && s.id == durableID {
				slot = s
				team = "zombies"
				break
			}
		}
	}
	if slot == nil {
		return protocol.RestoreResult{}, "", false
	}
	slot.c = c
	if name != "" {
		slot.name = name
	}
	if r.state == statePaused && !r.sideAbandonedLocked() {
		r.resumeLocked()
	}
	replay := r.chat
	if len(replay) > protocol.ChatReplayMax {
		replay = replay[len(replay)-protocol.ChatReplayMax:]
	}
	log.Printf("[Restore] %s -> %s", slot.name, r.id)
	return protocol.RestoreResult{
		Restored: true, RoomID: r.id, Team: team, Mode: r.mode,
		MaxWaves: r.g.maxWaves, State: r.state,
		PlayerList: r.playerListLocked(), GameState: r.g.State(),
		ChatHistory: append([]protocol.ChatMsg{}, replay...),
	}, team, true
}

// HandleDisconnect detaches the connection but keeps the seat; the session
// contract lets the player come back. Pauses the match if a side lost its
// last connected human.
func (r *Room) HandleDisconnect(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, s := range append(append([]*playerSlot{}, r.plantSlots...), r.zombieSlots...) {
		if s.c == c {
			s.c = nil
			found = true
		}
	}
	if found && r.state == statePlaying && r.sideAbandonedLocked() {
		r.pauseLocked("player disconnected")
	}
}

// sideAbandonedLocked is the pause predicate: true iff some side that has at
// least one human seat has none of them connected. All-bot sides don't count.
func (r *Room) sideAbandonedLocked() bool {
	for _, side := range [][]*playerSlot{r.plantSlots, r.zombieSlots} {
		humans, connected := 0, 0
		for _, s := range side {
			if s.isBot {
				continue
			}
			humans++
			if s.c != nil {
				connected++
			}
		}
		if humans > 0 && connected == 0 {
			return true
		}
	}
	return false
}

func (r *Room) anyRealConnectedLocked() bool {
	for _, s := range append(append([]*playerSlot{}, r.plantSlots...), r.zombieSlots...) {
		if !s.isBot && s.c != nil {
			return true
		}
	}
	return false
}

// RemoveBySocket drops the seat bound to a connection (explicit leave).
// Returns true when the room is now completely empty.
func (r *Room) RemoveBySocket(c *client, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := func(slots []*playerSlot) []*playerSlot {
		out := slots[:0]
		for _, s := range slots {
			if s.c != c {
				out = append(out, s)
			}
		}
		return out
	}
	r.plantSlots = drop(r.plantSlots)
	r.zombieSlots = drop(r.zombieSlots)
	r.playerUpdateLocked()
	if !force && r.state == statePlaying && r.sideAbandonedLocked() {
		r.pauseLocked("player left")
	}
	empty := len(r.plantSlots) == 0 && len(r.zombieSlots) == 0
	if empty {
		r.stopLoopLocked()
	}
	return empty
}

// RemoveByDurable drops a seat by durable id (leaveGame). When the last
// human gives up an in-progress match the room dies quietly: no winner, no
// leaderboard entry. Returns true when the room should be deleted.
func (r *Room) RemoveByDurable(durableID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := func(slots []*playerSlot) []*playerSlot {
		out := slots[:0]
		for _, s := range slots {
			if s.id != durableID {
				out = append(out, s)
			}
		}
		return out
	}
	r.plantSlots = drop(r.plantSlots)
	r.zombieSlots = drop(r.zombieSlots)
	r.playerUpdateLocked()

	humans := 0
	for _, s := range append(append([]*playerSlot{}, r.plantSlots...), r.zombieSlots...) {
		if !s.isBot {
			humans++
		}
	}
	if humans == 0 && (r.state == statePlaying || r.state == statePaused) {
		r.stopLoopLocked()
		r.state = stateEnded
		return true
	}
	return len(r.plantSlots) == 0 && len(r.zombieSlots) == 0
}

func (r *Room) Rename(durableID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range append(append([]*playerSlot{}, r.plantSlots...), r.zombieSlots...) {
		if s.id == durableID {
			s.name = name
		}
	}
}

// ---- chat ----

func (r *Room) SendChat(sender, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushChatLocked(protocol.ChatMsg{Sender: sender, Message: message, Time: time.Now().UnixMilli()})
}

func (r *Room) systemChatLocked(message string) {
	r.pushChatLocked(protocol.ChatMsg{Sender: "system", Message: message, Time: time.Now().UnixMilli(), System: true})
}

func (r *Room) pushChatLocked(msg protocol.ChatMsg) {
	r.chat = append(r.chat, msg)
	if len(r.chat) > protocol.ChatHistoryMax {
		r.chat = r.chat[len(r.chat)-protocol.ChatHistoryMax:]
	}
	r.broadcastLocked("chat", msg)
}

// ---- gated intent wrappers (reject outside of playing) ----

func (r *Room) PlacePlant(kind string, col, row int, by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.PlacePlant(PlantKind(kind), col, row, by)
}

func (r *Room) RemovePlant(col, row int, by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.RemovePlant(col, row, by)
}

func (r *Room) SpawnZombie(kind string, row int, by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.SpawnZombie(ZombieKind(kind), row, by, false)
}

func (r *Room) BuyWave(by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.BuyWave(by)
	// Buying at the wave cap forces an end-of-match check.
	if w := r.g.winner; w != "" {
		r.endGameLocked(w)
	}
}

func (r *Room) CollectSun(amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.CollectSun(amount)
}

func (r *Room) CollectBrain(amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePlaying {
		return
	}
	r.g.CollectBrain(amount)
}
