package srv

import (
	"testing"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

func TestAutoWaveSpawnsFreeZombies(t *testing.T) {
	g, events := newTestGame()
	g.nextWaveMs = protocol.TickMs
	before := g.brainCount

	g.Update(protocol.TickMs)
	if g.waveNumber != 1 {
		t.Fatalf("waveNumber = %d", g.waveNumber)
	}
	if events["waveStart"] != 1 {
		t.Fatal("no waveStart event")
	}
	// wave 1 is a single zombie with zero stagger
	if len(g.zombies) != 1 {
		t.Fatalf("zombies = %d", len(g.zombies))
	}
	if g.brainCount != before {
		t.Fatal("free wave charged brains")
	}
	if g.nextWaveMs != 45000 {
		t.Fatalf("nextWaveMs = %d", g.nextWaveMs)
	}
}

func TestAutoWaveStaggersSpawns(t *testing.T) {
	g, _ := newTestGame()
	g.waveNumber = 4 // next free wave is 5 zombies
	g.nextWaveMs = protocol.TickMs

	g.Update(protocol.TickMs)
	if len(g.zombies) != 1 {
		t.Fatalf("zombies after first tick = %d", len(g.zombies))
	}
	if len(g.pending) != 4 {
		t.Fatalf("pending = %d", len(g.pending))
	}
	for i := 0; i < 600/protocol.TickMs; i++ {
		g.Update(protocol.TickMs)
	}
	if len(g.zombies) != 2 {
		t.Fatalf("zombies after stagger = %d", len(g.zombies))
	}
}

func TestAutoWaveStopsAtCap(t *testing.T) {
	g, events := newTestGame()
	g.waveNumber = g.maxWaves
	g.nextWaveMs = protocol.TickMs
	// a zombie keeps the match alive through the tick
	z := addZombie(g, ZNormal, 0, 900)
	z.Speed = 0

	g.Update(protocol.TickMs)
	if g.waveNumber != g.maxWaves {
		t.Fatalf("waveNumber = %d", g.waveNumber)
	}
	if events["waveStart"] != 0 {
		t.Fatal("wave started past the cap")
	}
}

func TestBuyWaveRequiresFunds(t *testing.T) {
	g, _ := newTestGame()
	g.brainCount = protocol.WaveCost - 1
	if g.BuyWave("bob") {
		t.Fatal("bought a wave without funds")
	}
	if g.waveNumber != 0 {
		t.Fatalf("waveNumber = %d", g.waveNumber)
	}
}

func TestBuyWaveDeductsAndQueues(t *testing.T) {
	g, events := newTestGame()
	g.brainCount = protocol.WaveCost

	if !g.BuyWave("bob") {
		t.Fatal("buy rejected")
	}
	if g.brainCount != 0 {
		t.Fatalf("brainCount = %d", g.brainCount)
	}
	if g.waveNumber != 1 {
		t.Fatalf("waveNumber = %d", g.waveNumber)
	}
	if events["waveStart"] != 1 {
		t.Fatal("no waveStart event")
	}
	if len(g.pending) != 2 { // min(2+1/3, 6)
		t.Fatalf("pending = %d", len(g.pending))
	}
}

func TestBuyWaveAtCapChecksForWin(t *testing.T) {
	g, _ := newTestGame()
	g.brainCount = protocol.WaveCost
	g.waveNumber = g.maxWaves

	if g.BuyWave("bob") {
		t.Fatal("bought a wave past the cap")
	}
	if g.brainCount != protocol.WaveCost {
		t.Fatal("brains deducted for a wave that never started")
	}
	if g.winner != "plants" {
		t.Fatalf("winner = %q", g.winner)
	}
}

func TestBuyWaveAtCapWithZombiesNoWin(t *testing.T) {
	g, _ := newTestGame()
	g.brainCount = protocol.WaveCost
	g.waveNumber = g.maxWaves
	z := addZombie(g, ZNormal, 0, 900)
	z.Speed = 0

	g.BuyWave("bob")
	if g.winner != "" {
		t.Fatalf("winner = %q with zombies on the field", g.winner)
	}
}
