package srv

import (
	"testing"
	"time"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

// newTestGame returns a game with the wave timer parked and an event counter
// wired in, so combat behavior can be driven tick by tick.
func newTestGame() (*Game, map[string]int) {
	g := NewGame(1, 0)
	g.nextWaveMs = 1 << 30
	events := make(map[string]int)
	g.broadcast = func(typ string, v interface{}) { events[typ]++ }
	g.broadcastTo = func(team, typ string, v interface{}) { events[typ]++ }
	return g, events
}

func addZombie(g *Game, kind ZombieKind, row int, x float64) *Zombie {
	stats := zombieStats[kind]
	z := &Zombie{
		ID: protocol.NewID(), Kind: kind, Row: row, X: x,
		HP: stats.HP, MaxHP: stats.HP, Speed: stats.Speed, CanJump: stats.CanJump,
	}
	g.zombies = append(g.zombies, z)
	return z
}

func TestPlacePlantDeductsAndOccupies(t *testing.T) {
	g, _ := newTestGame()
	if !g.PlacePlant(Peashooter, 2, 1, "alice") {
		t.Fatal("placement rejected")
	}
	if g.sunCount != protocol.StartingSun-plantStats[Peashooter].Cost {
		t.Fatalf("sunCount = %d", g.sunCount)
	}
	if g.grid[2][1] == nil {
		t.Fatal("cell not occupied")
	}
	if g.PlacePlant(Sunflower, 2, 1, "alice") {
		t.Fatal("placed on an occupied cell")
	}
	if g.PlacePlant(Sunflower, -1, 0, "alice") || g.PlacePlant(Sunflower, 0, 9, "alice") {
		t.Fatal("placed out of bounds")
	}
}

func TestPlacePlantCooldown(t *testing.T) {
	g, _ := newTestGame()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return at }

	if !g.PlacePlant(Peashooter, 2, 0, "alice") {
		t.Fatal("first placement rejected")
	}
	if g.PlacePlant(Peashooter, 3, 0, "alice") {
		t.Fatal("placement during cooldown")
	}
	at = at.Add(time.Duration(plantStats[Peashooter].RechargeMs+1) * time.Millisecond)
	if !g.PlacePlant(Peashooter, 3, 0, "alice") {
		t.Fatal("placement after cooldown rejected")
	}
}

func TestRemovePlantRefundsQuarter(t *testing.T) {
	g, _ := newTestGame()
	g.PlacePlant(Peashooter, 2, 0, "alice")
	before := g.sunCount
	if !g.RemovePlant(2, 0, "alice") {
		t.Fatal("remove rejected")
	}
	if g.sunCount != before+plantStats[Peashooter].Cost/4 {
		t.Fatalf("sunCount = %d, want %d", g.sunCount, before+25)
	}
	if g.grid[2][0] != nil {
		t.Fatal("cell still occupied")
	}
	if g.RemovePlant(2, 0, "alice") {
		t.Fatal("removed an empty cell")
	}
}

func TestCollectClampsAtCap(t *testing.T) {
	g, _ := newTestGame()
	g.CollectSun(protocol.CurrencyMax * 2)
	if g.sunCount != protocol.CurrencyMax {
		t.Fatalf("sunCount = %d", g.sunCount)
	}
	g.CollectBrain(protocol.CurrencyMax * 2)
	if g.brainCount != protocol.CurrencyMax {
		t.Fatalf("brainCount = %d", g.brainCount)
	}
}

func TestSpawnZombiePaysAndThrottles(t *testing.T) {
	g, _ := newTestGame()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return at }

	if !g.SpawnZombie(ZCone, 2, "bob", false) {
		t.Fatal("spawn rejected")
	}
	if g.brainCount != protocol.StartingBrain-zombieStats[ZCone].Cost {
		t.Fatalf("brainCount = %d", g.brainCount)
	}
	if g.SpawnZombie(ZCone, 3, "bob", false) {
		t.Fatal("spawn during cooldown")
	}
	// Wave-directed spawns ignore both the cooldown and the cost.
	before := g.brainCount
	if !g.SpawnZombie(ZCone, 3, "wave", true) {
		t.Fatal("wave spawn rejected")
	}
	if g.brainCount != before {
		t.Fatal("wave spawn charged brains")
	}
}

func TestPeaHitsAndIceSlowsOnce(t *testing.T) {
	g, _ := newTestGame()
	g.PlacePlant(Snowpea, 0, 2, "alice")
	z := addZombie(g, ZNormal, 2, 300)
	z.Speed = 0 // hold still
	g.grid[0][2].shootTimer = plantStats[Snowpea].ShootIntervalMs

	for i := 0; i < 200 && z.HP == z.MaxHP; i++ {
		g.Update(protocol.TickMs)
	}
	if z.HP != z.MaxHP-plantStats[Snowpea].Damage {
		t.Fatalf("HP = %d", z.HP)
	}
	if !z.Slowed {
		t.Fatal("zombie not slowed")
	}
	halved := zombieStats[ZNormal].Speed * 0.5
	z.Speed = halved
	hp := z.HP
	g.grid[0][2].shootTimer = plantStats[Snowpea].ShootIntervalMs
	for i := 0; i < 200 && z.HP == hp; i++ {
		g.Update(protocol.TickMs)
	}
	if z.Speed != halved {
		t.Fatalf("second ice hit changed speed to %v", z.Speed)
	}
}

func TestTorchwoodEmpowersPea(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Peashooter, 0, 2, "alice")
	g.PlacePlant(Torchwood, 3, 2, "alice")
	z := addZombie(g, ZBucket, 2, 700)
	z.Speed = 0
	g.grid[0][2].shootTimer = plantStats[Peashooter].ShootIntervalMs

	for i := 0; i < 400 && z.HP == z.MaxHP; i++ {
		g.Update(protocol.TickMs)
	}
	if z.HP != z.MaxHP-plantStats[Peashooter].Damage*2 {
		t.Fatalf("HP = %d, want fire damage", z.HP)
	}
	if events["peaFire"] == 0 {
		t.Fatal("no peaFire event")
	}
}

func TestTorchwoodMeltsIce(t *testing.T) {
	g, _ := newTestGame()
	g.PlacePlant(Snowpea, 0, 2, "alice")
	g.PlacePlant(Torchwood, 3, 2, "alice")
	z := addZombie(g, ZBucket, 2, 700)
	z.Speed = 0
	g.grid[0][2].shootTimer = plantStats[Snowpea].ShootIntervalMs

	for i := 0; i < 400 && z.HP == z.MaxHP; i++ {
		g.Update(protocol.TickMs)
	}
	if z.Slowed {
		t.Fatal("fire pea should not slow")
	}
	if z.HP != z.MaxHP-plantStats[Snowpea].Damage*2 {
		t.Fatalf("HP = %d", z.HP)
	}
}

func TestPeaMissPastEdge(t *testing.T) {
	g, events := newTestGame()
	g.peas = append(g.peas, &Pea{ID: 1, X: protocol.PeaExitX - 5, Row: 0, Damage: 25})
	g.Update(protocol.TickMs)
	if events["peaMiss"] != 1 {
		t.Fatal("no peaMiss event")
	}
	if len(g.peas) != 0 {
		t.Fatal("pea not removed")
	}
}

func TestZombieEatsBlockingPlant(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Wallnut, 4, 1, "alice")
	z := addZombie(g, ZNormal, 1, 480)
	wall := g.grid[4][1]

	for i := 0; i < 51; i++ { // just past one 800ms bite
		g.Update(protocol.TickMs)
	}
	if wall.HP != wall.MaxHP-zombieStats[ZNormal].Damage {
		t.Fatalf("wall HP = %d", wall.HP)
	}
	if z.X != 480 {
		t.Fatalf("zombie moved while eating, X = %v", z.X)
	}
	if events["plantDamage"] == 0 {
		t.Fatal("no plantDamage event")
	}
}

func TestZombieBreachEndsMatch(t *testing.T) {
	g, _ := newTestGame()
	addZombie(g, ZNormal, 0, protocol.BreachX+1)
	for i := 0; i < 20 && g.winner == ""; i++ {
		g.Update(protocol.TickMs)
	}
	if g.winner != "zombies" {
		t.Fatalf("winner = %q", g.winner)
	}
}

func TestChomperEatsThenDigests(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Chomper, 5, 1, "alice")
	z := addZombie(g, ZNormal, 1, 600)
	z.Speed = 0

	g.Update(protocol.TickMs)
	if z.HP != 0 {
		t.Fatal("zombie not eaten")
	}
	if events["chomperEat"] != 1 {
		t.Fatal("no chomperEat event")
	}

	second := addZombie(g, ZNormal, 1, 600)
	second.Speed = 0
	g.Update(protocol.TickMs)
	if second.HP != second.MaxHP {
		t.Fatal("chomper ate while digesting")
	}

	g.grid[5][1].digestTimer = protocol.TickMs
	g.Update(protocol.TickMs)
	if events["chomperReady"] != 1 {
		t.Fatal("no chomperReady event")
	}
	g.Update(protocol.TickMs)
	if second.HP != 0 {
		t.Fatal("chomper did not eat after digesting")
	}
}

func TestPotatomineArmsThenExplodes(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Potatomine, 5, 2, "alice")
	mine := g.grid[5][2]
	far := addZombie(g, ZNormal, 2, 900)
	far.Speed = 0

	mine.armTimer = protocol.TickMs
	g.Update(protocol.TickMs)
	if !mine.Armed || events["mineArmed"] != 1 {
		t.Fatal("mine did not arm")
	}

	trigger := addZombie(g, ZNormal, 2, 600)
	trigger.Speed = 0
	near := addZombie(g, ZNormal, 2, 640)
	near.Speed = 0
	otherRow := addZombie(g, ZNormal, 3, 600)
	otherRow.Speed = 0

	g.Update(protocol.TickMs)
	if events["mineExplode"] != 1 {
		t.Fatal("mine did not explode")
	}
	if trigger.HP > 0 || near.HP > 0 {
		t.Fatal("blast missed in-row zombies")
	}
	if otherRow.HP <= 0 {
		t.Fatal("blast crossed rows")
	}
	if far.HP <= 0 {
		t.Fatal("blast exceeded its radius")
	}
	if g.grid[5][2] != nil {
		t.Fatal("mine still on the grid")
	}
}

func TestCherrybombExplodesInRadius(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Cherrybomb, 4, 2, "alice")
	inRange := addZombie(g, ZBucket, 2, 560)
	inRange.Speed = 0
	outOfRange := addZombie(g, ZBucket, 0, 560)
	outOfRange.Speed = 0

	g.grid[4][2].fuseTimer = protocol.TickMs
	g.Update(protocol.TickMs)
	if events["cherryExplode"] != 1 {
		t.Fatal("no explosion")
	}
	if inRange.HP > 0 {
		t.Fatal("zombie in radius survived")
	}
	if outOfRange.HP <= 0 {
		t.Fatal("zombie outside radius died")
	}
}

func TestPolevaulterJumpsFirstBlocker(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Wallnut, 5, 1, "alice")
	z := addZombie(g, ZPolevaulter, 1, 600)

	g.Update(protocol.TickMs)
	if z.CanJump {
		t.Fatal("jump not spent")
	}
	want := float64(5*protocol.CellSize) - 50
	if z.X != want {
		t.Fatalf("X = %v, want %v", z.X, want)
	}
	if events["zombieJump"] != 1 {
		t.Fatal("no zombieJump event")
	}
}

func TestTallnutBlocksVault(t *testing.T) {
	g, events := newTestGame()
	g.PlacePlant(Tallnut, 5, 1, "alice")
	z := addZombie(g, ZPolevaulter, 1, 600)

	g.Update(protocol.TickMs)
	if z.CanJump {
		t.Fatal("jump not spent on the tallnut")
	}
	if z.X != 600 {
		t.Fatalf("zombie moved past the tallnut, X = %v", z.X)
	}
	if events["zombieJump"] != 0 {
		t.Fatal("unexpected zombieJump event")
	}
}

func TestPlantsWinWhenFinalWaveCleared(t *testing.T) {
	g, _ := newTestGame()
	g.waveNumber = g.maxWaves
	g.Update(protocol.TickMs)
	if g.winner != "plants" {
		t.Fatalf("winner = %q", g.winner)
	}
}

func TestNoWinWhileZombiesRemain(t *testing.T) {
	g, _ := newTestGame()
	g.waveNumber = g.maxWaves
	z := addZombie(g, ZNormal, 0, 900)
	z.Speed = 0
	g.Update(protocol.TickMs)
	if g.winner != "" {
		t.Fatalf("winner = %q with zombies on the field", g.winner)
	}
}
