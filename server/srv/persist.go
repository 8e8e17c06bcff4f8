package srv

import (
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

// Everything durable lives in one JSON document written atomically via a
// temp file and rename. Sessions map durable ids to seats so a reconnecting
// player can be routed back; room states let a restarted server resume
// matches mid-wave.

type Session struct {
	RoomID string `json:"roomId"`
	Team   string `json:"team"`
	Name   string `json:"name"`
}

type PersistedPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
}

type PersistedPlant struct {
	Type  string `json:"type"`
	Col   int    `json:"col"`
	Row   int    `json:"row"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
	Armed bool   `json:"armed"`
}

type PersistedZombie struct {
	ID      int64   `json:"id"`
	Type    string  `json:"type"`
	Row     int     `json:"row"`
	X       float64 `json:"x"`
	HP      int     `json:"hp"`
	MaxHP   int     `json:"maxHp"`
	Speed   float64 `json:"speed"`
	Slowed  bool    `json:"slowed"`
	CanJump bool    `json:"canJump"`
}

type PersistedRoom struct {
	ID            string             `json:"id"`
	Mode          int                `json:"mode"`
	HostName      string             `json:"hostName"`
	MaxWaves      int                `json:"maxWaves"`
	SunCount      int                `json:"sunCount"`
	BrainCount    int                `json:"brainCount"`
	WaveNumber    int                `json:"waveNumber"`
	State         string             `json:"state"`
	Plants        []PersistedPlant   `json:"plants"`
	Zombies       []PersistedZombie  `json:"zombies"`
	PlantPlayers  []PersistedPlayer  `json:"plantPlayers"`
	ZombiePlayers []PersistedPlayer  `json:"zombiePlayers"`
	ChatHistory   []protocol.ChatMsg `json:"chatHistory"`
}

type document struct {
	Sessions    map[string]Session          `json:"sessions"`
	Leaderboard []protocol.LeaderboardEntry `json:"leaderboard"`
	RoomStates  map[string]PersistedRoom    `json:"roomStates"`
}

type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

func LoadStore(path string) *Store {
	s := &Store{path: path, doc: document{
		Sessions:   make(map[string]Session),
		RoomStates: make(map[string]PersistedRoom),
	}}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[Store] corrupt state file %s, starting fresh: %v", path, err)
		return s
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]Session)
	}
	if doc.RoomStates == nil {
		doc.RoomStates = make(map[string]PersistedRoom)
	}
	s.doc = doc
	return s
}

func (s *Store) SetSession(durableID string, sess Session) {
	s.mu.Lock()
	s.doc.Sessions[durableID] = sess
	s.mu.Unlock()
}

func (s *Store) Session(durableID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.doc.Sessions[durableID]
	return sess, ok
}

func (s *Store) DeleteSession(durableID string) {
	s.mu.Lock()
	delete(s.doc.Sessions, durableID)
	s.mu.Unlock()
}

func (s *Store) Sessions() map[string]Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Session, len(s.doc.Sessions))
	for k, v := range s.doc.Sessions {
		out[k] = v
	}
	return out
}

func (s *Store) SetRoomState(rs PersistedRoom) {
	s.mu.Lock()
	s.doc.RoomStates[rs.ID] = rs
	s.mu.Unlock()
}

func (s *Store) DeleteRoomState(roomID string) {
	s.mu.Lock()
	delete(s.doc.RoomStates, roomID)
	s.mu.Unlock()
}

func (s *Store) RoomStates() map[string]PersistedRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]PersistedRoom, len(s.doc.RoomStates))
	for k, v := range s.doc.RoomStates {
		out[k] = v
	}
	return out
}

func (s *Store) AppendLeaderboard(entry protocol.LeaderboardEntry) {
	s.mu.Lock()
	s.doc.Leaderboard = append(s.doc.Leaderboard, entry)
	if len(s.doc.Leaderboard) > protocol.LeaderboardMax {
		s.doc.Leaderboard = s.doc.Leaderboard[len(s.doc.Leaderboard)-protocol.LeaderboardMax:]
	}
	s.mu.Unlock()
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) []protocol.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb := s.doc.Leaderboard
	if len(lb) > n {
		lb = lb[len(lb)-n:]
	}
	out := make([]protocol.LeaderboardEntry, 0, len(lb))
	for i := len(lb) - 1; i >= 0; i-- {
		out = append(out, lb[i])
	}
	return out
}

func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	path := s.path
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Snapshot captures the room for the state file. Tick timers are not
// persisted; a rehydrated room re-arms mines and fuses from scratch and waits
// a full interval for its next free wave.
func (r *Room) Snapshot() PersistedRoom {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.g
	rs := PersistedRoom{
		ID: r.id, Mode: r.mode, HostName: r.hostName, MaxWaves: g.maxWaves,
		SunCount: g.sunCount, BrainCount: g.brainCount, WaveNumber: g.waveNumber,
		State: r.state,
	}
	for _, p := range g.plants {
		rs.Plants = append(rs.Plants, PersistedPlant{
			Type: string(p.Kind), Col: p.Col, Row: p.Row, HP: p.HP, MaxHP: p.MaxHP, Armed: p.Armed,
		})
	}
	for _, z := range g.zombies {
		rs.Zombies = append(rs.Zombies, PersistedZombie{
			ID: z.ID, Type: string(z.Kind), Row: z.Row, X: z.X, HP: z.HP, MaxHP: z.MaxHP,
			Speed: z.Speed, Slowed: z.Slowed, CanJump: z.CanJump,
		})
	}
	for _, s := range r.plantSlots {
		rs.PlantPlayers = append(rs.PlantPlayers, PersistedPlayer{ID: s.id, Name: s.name, IsBot: s.isBot})
	}
	for _, s := range r.zombieSlots {
		rs.ZombiePlayers = append(rs.ZombiePlayers, PersistedPlayer{ID: s.id, Name: s.name, IsBot: s.isBot})
	}
	chat := r.chat
	if len(chat) > protocol.ChatReplayMax {
		chat = chat[len(chat)-protocol.ChatReplayMax:]
	}
	rs.ChatHistory = append(rs.ChatHistory, chat...)
	return rs
}

// NewRoomFromSnapshot rebuilds a room from the state file. All human slots
// come back disconnected; a playing room starts paused-equivalent only in
// the sense that its loop is restarted by the caller and the pause predicate
// kicks in on the first disconnect-aware check via Restore/Join.
func NewRoomFromSnapshot(rs PersistedRoom, h *Hub) *Room {
	r := NewRoom(rs.ID, rs.Mode, rs.MaxWaves, rs.HostName, h)
	r.state = rs.State
	g := r.g
	g.sunCount = rs.SunCount
	g.brainCount = rs.BrainCount
	g.waveNumber = rs.WaveNumber
	g.nextWaveMs = 45000

	for _, pp := range rs.Plants {
		stats := plantStats[PlantKind(pp.Type)]
		p := &Plant{
			Kind: PlantKind(pp.Type), Col: pp.Col, Row: pp.Row,
			HP: pp.HP, MaxHP: pp.MaxHP, Armed: pp.Armed,
			secondShot: -1, armTimer: -1, fuseTimer: -1,
		}
		if stats.ArmTimeMs > 0 && !p.Armed {
			p.armTimer = stats.ArmTimeMs
		}
		if stats.ExplodeTimeMs > 0 {
			p.fuseTimer = stats.ExplodeTimeMs
		}
		g.plants = append(g.plants, p)
		if pp.Col >= 0 && pp.Col < protocol.GridCols && pp.Row >= 0 && pp.Row < protocol.GridRows {
			g.grid[pp.Col][pp.Row] = p
		}
	}
	for _, pz := range rs.Zombies {
		g.zombies = append(g.zombies, &Zombie{
			ID: pz.ID, Kind: ZombieKind(pz.Type), Row: pz.Row, X: pz.X,
			HP: pz.HP, MaxHP: pz.MaxHP, Speed: pz.Speed, Slowed: pz.Slowed, CanJump: pz.CanJump,
		})
	}
	restoreSlots := func(players []PersistedPlayer) []*playerSlot {
		out := make([]*playerSlot, 0, len(players))
		for _, pp := range players {
			out = append(out, &playerSlot{
				id: pp.ID, name: pp.Name, isBot: pp.IsBot,
				strategyPeriod: botStrategyBaseMs + rand.Intn(botStrategyBaseMs),
			})
		}
		return out
	}
	r.plantSlots = restoreSlots(rs.PlantPlayers)
	r.zombieSlots = restoreSlots(rs.ZombiePlayers)
	r.chat = append(r.chat, rs.ChatHistory...)

	// No humans are connected yet. A playing room with human seats must
	// wait for a restore instead of running against absent players.
	if r.state == statePlaying && r.sideAbandonedLocked() {
		r.state = statePaused
	}
	return r
}
