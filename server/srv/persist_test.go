package srv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

func TestStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := LoadStore(path)
	s.SetSession("d-1", Session{RoomID: "R1", Team: "plants", Name: "alice"})
	s.AppendLeaderboard(protocol.LeaderboardEntry{Winner: "plants", WaveNumber: 9})
	s.SetRoomState(PersistedRoom{ID: "R1", Mode: 2, State: statePlaying, WaveNumber: 3})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	s2 := LoadStore(path)
	sess, ok := s2.Session("d-1")
	if !ok || sess.RoomID != "R1" || sess.Name != "alice" {
		t.Fatalf("session = %+v", sess)
	}
	recent := s2.Recent(5)
	if len(recent) != 1 || recent[0].WaveNumber != 9 {
		t.Fatalf("leaderboard = %+v", recent)
	}
	rs, ok := s2.RoomStates()["R1"]
	if !ok || rs.WaveNumber != 3 || rs.Mode != 2 {
		t.Fatalf("room state = %+v", rs)
	}
}

func TestCorruptStateFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := LoadStore(path)
	if len(s.Sessions()) != 0 || len(s.RoomStates()) != 0 {
		t.Fatal("corrupt file produced state")
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
}

func TestLeaderboardCaps(t *testing.T) {
	s := LoadStore(filepath.Join(t.TempDir(), "state.json"))
	for i := 0; i < protocol.LeaderboardMax+20; i++ {
		s.AppendLeaderboard(protocol.LeaderboardEntry{WaveNumber: i})
	}
	all := s.Recent(protocol.LeaderboardMax * 2)
	if len(all) != protocol.LeaderboardMax {
		t.Fatalf("leaderboard = %d entries", len(all))
	}
	// newest first
	if all[0].WaveNumber != protocol.LeaderboardMax+19 {
		t.Fatalf("first entry = %+v", all[0])
	}
}

func TestSnapshotRoundtripsRoom(t *testing.T) {
	h := newTestHub(t)
	r := NewRoom("R9", 2, 10, "alice", h)
	r.Join(fakeClient(), "d-alice", "alice", "plants")
	r.AddBot("zombies")
	r.Shutdown()

	r.mu.Lock()
	r.state = statePlaying
	r.g.waveNumber = 4
	r.g.sunCount = 321
	r.g.brainCount = 654
	r.mu.Unlock()
	addPlant(r.g, Tallnut, 4, 2)
	mine := addPlant(r.g, Potatomine, 5, 1)
	mine.Armed = true
	z := addZombie(r.g, ZPolevaulter, 2, 512)
	z.Slowed = true
	z.Speed *= 0.5
	r.SendChat("alice", "hold the line")

	rs := r.Snapshot()
	r2 := NewRoomFromSnapshot(rs, h)

	g := r2.g
	if g.waveNumber != 4 || g.sunCount != 321 || g.brainCount != 654 {
		t.Fatalf("ledger = %d/%d wave %d", g.sunCount, g.brainCount, g.waveNumber)
	}
	if g.maxWaves != 10 {
		t.Fatalf("maxWaves = %d", g.maxWaves)
	}
	if g.grid[4][2] == nil || g.grid[4][2].Kind != Tallnut {
		t.Fatal("tallnut lost")
	}
	if g.grid[5][1] == nil || !g.grid[5][1].Armed {
		t.Fatal("armed mine came back disarmed")
	}
	if len(g.zombies) != 1 {
		t.Fatalf("zombies = %d", len(g.zombies))
	}
	zz := g.zombies[0]
	if !zz.Slowed || !zz.CanJump || zz.X != 512 {
		t.Fatalf("zombie = %+v", zz)
	}
	if len(r2.plantSlots) != 1 || len(r2.zombieSlots) != 1 {
		t.Fatal("seats lost")
	}
	if !r2.zombieSlots[0].isBot {
		t.Fatal("bot flag lost")
	}
	if len(r2.chat) == 0 {
		t.Fatal("chat history lost")
	}
	// the human seat is disconnected, so a playing room must come back paused
	if r2.state != statePaused {
		t.Fatalf("state = %q", r2.state)
	}
}

func TestSweepDropsOrphanState(t *testing.T) {
	h := newTestHub(t)
	h.store.SetRoomState(PersistedRoom{ID: "R-gone", State: statePlaying})
	h.store.SetRoomState(PersistedRoom{ID: "R-kept", State: statePlaying})
	h.store.SetSession("d-1", Session{RoomID: "R-kept", Team: "plants", Name: "alice"})

	h.sweep()
	states := h.store.RoomStates()
	if _, ok := states["R-gone"]; ok {
		t.Fatal("orphan state survived the sweep")
	}
	if _, ok := states["R-kept"]; !ok {
		t.Fatal("referenced state was swept")
	}
}

func TestSnapshotAllBotSideKeepsPlaying(t *testing.T) {
	h := newTestHub(t)
	rs := PersistedRoom{
		ID: "R8", Mode: 1, State: statePlaying, MaxWaves: 15,
		PlantPlayers:  []PersistedPlayer{{ID: "b1", Name: "Sunny AI", IsBot: true}},
		ZombiePlayers: []PersistedPlayer{{ID: "b2", Name: "Spike AI", IsBot: true}},
	}
	r := NewRoomFromSnapshot(rs, h)
	if r.state != statePlaying {
		t.Fatalf("state = %q", r.state)
	}
}
