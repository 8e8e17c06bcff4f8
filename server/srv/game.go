package srv

import (
	"math"
	"math/rand"
	"time"

	"github.com/hellojuantu/pvz-5v5/shared/protocol"
)

// Plant is a stationary defender. Delayed effects (mine arming, cherry fuse,
// chomper digestion, repeater follow-up shot) are countdowns advanced by the
// tick, so a paused room freezes them and nothing fires against stale state.
type Plant struct {
	Kind  PlantKind
	Col   int
	Row   int
	HP    int
	MaxHP int

	Armed     bool // potatomine went live
	Digesting bool // chomper cannot eat

	sunTimer    int
	shootTimer  int
	secondShot  int // ms until the repeater's follow-up pea; -1 idle
	armTimer    int // ms until a mine arms; -1 idle
	fuseTimer   int // ms until a cherry explodes; -1 idle
	digestTimer int // ms until a chomper can eat again
}

type Zombie struct {
	ID      int64
	Kind    ZombieKind
	Row     int
	X       float64
	HP      int
	MaxHP   int
	Speed   float64 // px per tick; halved once by an ice pea
	Slowed  bool
	CanJump bool

	brainTimer int
	eatTimer   int
}

type Pea struct {
	ID     int64
	X, Y   float64
	Row    int
	Damage int
	Slows  bool
	Fire   bool
}

// Game is the authoritative per-room state: entities, grid, ledger, waves.
// It has no notion of connections or lifecycle; the Room gates every call
// and owns the tick loop. All mutation happens under the Room's lock.
type Game struct {
	mode       int
	maxWaves   int
	waveNumber int
	sunCount   int
	brainCount int

	grid    [protocol.GridCols][protocol.GridRows]*Plant
	plants  []*Plant
	zombies []*Zombie
	peas    []*Pea

	plantCooldowns  map[PlantKind]time.Time
	zombieCooldowns map[ZombieKind]time.Time

	pending    []pendingSpawn // staggered wave spawns, advanced by the tick
	nextWaveMs int            // until the next free wave
	skySunMs   int
	skyBrainMs int

	winner string // "" until decided; the Room ends the match

	now         func() time.Time
	rng         *rand.Rand
	broadcast   func(typ string, v interface{})
	broadcastTo func(team, typ string, v interface{})
}

func NewGame(mode, maxWaves int) *Game {
	if maxWaves <= 0 {
		maxWaves = protocol.MaxWavesDefault
	}
	return &Game{
		mode:            mode,
		maxWaves:        maxWaves,
		sunCount:        protocol.StartingSun,
		brainCount:      protocol.StartingBrain,
		plantCooldowns:  make(map[PlantKind]time.Time),
		zombieCooldowns: make(map[ZombieKind]time.Time),
		now:             time.Now,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		broadcast:       func(string, interface{}) {},
		broadcastTo:     func(string, string, interface{}) {},
	}
}

// Update is the fixed-tick combat pass. Order matters: wave spawns, sky
// drops, plant behaviors, zombie behaviors, projectiles, cleanup, win check.
func (g *Game) Update(dt int) {
	if g.winner != "" {
		return
	}
	g.tickWaves(dt)
	g.tickSky(dt)
	g.tickPlants(dt)
	g.tickZombies(dt)
	if g.winner != "" {
		return // breach: nothing after this tick matters
	}
	g.tickPeas(dt)
	g.cleanup()
	g.checkWin()
}

func (g *Game) tickSky(dt int) {
	g.skySunMs += dt
	if g.skySunMs >= 10000 {
		g.skySunMs -= 10000
		g.broadcastTo("plants", "skySun", protocol.SkySun{X: g.rng.Float64()*700 + 80, Y: 40})
	}
	g.skyBrainMs += dt
	if g.skyBrainMs >= 10000 {
		g.skyBrainMs -= 10000
		g.broadcastTo("zombies", "skyBrain", protocol.SkyBrain{X: g.rng.Float64()*700 + 80, Y: 40})
	}
}

func (g *Game) tickPlants(dt int) {
	for _, p := range g.plants {
		if p.HP <= 0 {
			continue
		}
		stats := plantStats[p.Kind]

		switch p.Kind {
		case Sunflower:
			p.sunTimer += dt
			if p.sunTimer >= stats.SunIntervalMs {
				p.sunTimer = 0
				g.broadcastTo("plants", "plantSun", protocol.PlantSun{Col: p.Col, Row: p.Row})
			}

		case Peashooter, Repeater, Snowpea:
			// The timer keeps accumulating while the row is clear, so the
			// first shot lands the moment a zombie shows up.
			p.shootTimer += dt
			if p.shootTimer >= stats.ShootIntervalMs && g.zombieAhead(p.Row, p.Col) {
				p.shootTimer = 0
				g.firePea(p, stats.Damage, stats.Slows)
				if stats.Double {
					p.secondShot = 150
				}
			}
			if p.secondShot >= 0 {
				p.secondShot -= dt
				if p.secondShot < 0 {
					g.firePea(p, stats.Damage, false)
				}
			}

		case Chomper:
			if p.Digesting {
				p.digestTimer -= dt
				if p.digestTimer <= 0 {
					p.Digesting = false
					g.broadcast("chomperReady", protocol.ChomperReady{Col: p.Col, Row: p.Row})
				}
				break
			}
			if z := g.zombieNear(p, 80); z != nil {
				z.HP = 0
				p.Digesting = true
				p.digestTimer = stats.EatCooldownMs
				g.broadcast("chomperEat", protocol.ChomperEat{Col: p.Col, Row: p.Row, ZombieID: z.ID})
			}

		case Potatomine:
			if !p.Armed {
				p.armTimer -= dt
				if p.armTimer <= 0 {
					p.Armed = true
					g.broadcast("mineArmed", protocol.MineArmed{Col: p.Col, Row: p.Row})
				}
				break
			}
			if g.zombieNear(p, 80) != nil {
				px := float64(p.Col * protocol.CellSize)
				for _, z := range g.zombies {
					if z.Row == p.Row && math.Abs(z.X-px) < stats.Radius {
						z.HP -= stats.Damage
					}
				}
				p.HP = 0
				g.grid[p.Col][p.Row] = nil
				g.broadcast("mineExplode", protocol.MineExplode{Col: p.Col, Row: p.Row})
			}

		case Cherrybomb:
			p.fuseTimer -= dt
			if p.fuseTimer <= 0 {
				cx := float64(p.Col*protocol.CellSize + 50)
				cy := float64(p.Row*protocol.CellSize + 50)
				for _, z := range g.zombies {
					if math.Hypot(z.X-cx, float64(z.Row*protocol.CellSize)-cy) < stats.Radius {
						z.HP = 0
					}
				}
				p.HP = 0
				g.grid[p.Col][p.Row] = nil
				g.broadcast("cherryExplode", protocol.CherryExplode{Col: p.Col, Row: p.Row})
			}
		}
	}
}

func (g *Game) tickZombies(dt int) {
	for _, z := range g.zombies {
		if z.HP <= 0 {
			continue
		}
		stats := zombieStats[z.Kind]

		if z.Kind == ZBrain {
			z.brainTimer += dt
			// Production speeds up as waves mount: 6s at wave 0 down to 2s.
			interval := 6000 - g.waveNumber*300
			if interval < 2000 {
				interval = 2000
			}
			if z.brainTimer >= interval {
				z.brainTimer = 0
				g.broadcastTo("zombies", "zombieBrain", protocol.ZombieBrain{ID: z.ID, X: z.X, Row: z.Row})
			}
		}

		target := g.blockingPlant(z)

		if z.Kind == ZPolevaulter && z.CanJump && target != nil {
			z.CanJump = false
			if plantStats[target.Kind].BlockJump {
				// Tall blocker takes the pole; next tick it gets chewed on.
				continue
			}
			from := z.X
			z.X = float64(target.Col*protocol.CellSize) - 50
			g.broadcast("zombieJump", protocol.ZombieJump{ID: z.ID, FromX: from, ToX: z.X})
			continue
		}

		if target != nil && stats.Damage > 0 && !z.CanJump {
			z.eatTimer += dt
			if z.eatTimer >= 800 {
				z.eatTimer = 0
				target.HP -= stats.Damage
				g.broadcast("plantDamage", protocol.PlantDamage{Col: target.Col, Row: target.Row, HP: target.HP})
				if target.HP <= 0 {
					g.grid[target.Col][target.Row] = nil
					g.broadcast("plantDie", protocol.PlantDie{Col: target.Col, Row: target.Row})
				}
			}
		} else if target == nil || z.CanJump {
			z.X -= z.Speed * float64(dt) / protocol.TickMs
			if z.X < protocol.BreachX {
				g.winner = "zombies"
				return
			}
		}
		// A zero-damage zombie facing a plant just stands there, blocked.
	}
}

func (g *Game) tickPeas(dt int) {
	for i := len(g.peas) - 1; i >= 0; i-- {
		pea := g.peas[i]
		pea.X += protocol.PeaSpeed * float64(dt) / protocol.TickMs

		// Crossing a torchwood empowers the pea exactly once: double damage,
		// and fire melts any ice effect it carried.
		if !pea.Fire {
			for _, p := range g.plants {
				if p.Kind == Torchwood && p.HP > 0 && p.Row == pea.Row &&
					math.Abs(float64(p.Col*protocol.CellSize+50)-pea.X) < 30 {
					pea.Fire = true
					pea.Damage *= 2
					pea.Slows = false
					g.broadcast("peaFire", protocol.PeaFire{PeaID: pea.ID})
					break
				}
			}
		}

		var hit *Zombie
		for _, z := range g.zombies {
			if z.Row == pea.Row && z.HP > 0 && math.Abs(z.X-pea.X) < 40 {
				hit = z
				break
			}
		}
		if hit != nil {
			hit.HP -= pea.Damage
			if pea.Slows && !hit.Slowed {
				hit.Slowed = true
				hit.Speed *= 0.5
			}
			g.broadcast("peaHit", protocol.PeaHit{
				PeaID: pea.ID, ZombieID: hit.ID, ZombieHP: hit.HP, Slowed: pea.Slows, Fire: pea.Fire,
			})
			g.peas = append(g.peas[:i], g.peas[i+1:]...)
		} else if pea.X > protocol.PeaExitX {
			g.broadcast("peaMiss", protocol.PeaMiss{PeaID: pea.ID})
			g.peas = append(g.peas[:i], g.peas[i+1:]...)
		}
	}
}

// cleanup drops dead entities and rebuilds the grid strictly from the
// survivors; the plant list is the single source of truth for occupancy.
func (g *Game) cleanup() {
	for _, z := range g.zombies {
		if z.HP <= 0 {
			g.broadcast("zombieDie", protocol.ZombieDie{ID: z.ID})
		}
	}
	plants := g.plants[:0]
	for _, p := range g.plants {
		if p.HP > 0 {
			plants = append(plants, p)
		}
	}
	g.plants = plants
	zombies := g.zombies[:0]
	for _, z := range g.zombies {
		if z.HP > 0 {
			zombies = append(zombies, z)
		}
	}
	g.zombies = zombies

	g.grid = [protocol.GridCols][protocol.GridRows]*Plant{}
	for _, p := range g.plants {
		g.grid[p.Col][p.Row] = p
	}
}

func (g *Game) checkWin() {
	if g.winner == "" && g.waveNumber >= g.maxWaves && len(g.zombies) == 0 {
		g.winner = "plants"
	}
}

func (g *Game) zombieAhead(row, col int) bool {
	edge := float64(col * protocol.CellSize)
	for _, z := range g.zombies {
		if z.Row == row && z.HP > 0 && z.X > edge {
			return true
		}
	}
	return false
}

func (g *Game) zombieNear(p *Plant, dist float64) *Zombie {
	px := float64(p.Col * protocol.CellSize)
	for _, z := range g.zombies {
		if z.Row == p.Row && z.HP > 0 && math.Abs(z.X-px) < dist {
			return z
		}
	}
	return nil
}

// blockingPlant finds the live plant whose cell span overlaps the zombie.
func (g *Game) blockingPlant(z *Zombie) *Plant {
	for _, p := range g.plants {
		if p.Row != z.Row || p.HP <= 0 {
			continue
		}
		edge := float64(p.Col * protocol.CellSize)
		if edge+70 > z.X && edge < z.X+40 {
			return p
		}
	}
	return nil
}

func (g *Game) firePea(p *Plant, damage int, slows bool) {
	peaType := "normal"
	if slows {
		peaType = "ice"
	}
	pea := &Pea{
		ID:     protocol.NewID(),
		X:      float64(p.Col*protocol.CellSize + 80),
		Y:      float64(p.Row*protocol.CellSize + 40),
		Row:    p.Row,
		Damage: damage,
		Slows:  slows,
	}
	g.peas = append(g.peas, pea)
	g.broadcast("shoot", protocol.Shoot{ID: pea.ID, X: pea.X, Y: pea.Y, Row: pea.Row, Type: peaType})
}

// ---- intent entry points (validated, silently rejected) ----

func (g *Game) PlacePlant(kind PlantKind, col, row int, by string) bool {
	if col < 0 || col >= protocol.GridCols || row < 0 || row >= protocol.GridRows {
		return false
	}
	if g.grid[col][row] != nil {
		return false
	}
	stats, ok := plantStats[kind]
	if !ok || g.sunCount < stats.Cost {
		return false
	}
	if until, ok := g.plantCooldowns[kind]; ok && g.now().Before(until) {
		return false
	}
	g.sunCount -= stats.Cost
	g.plantCooldowns[kind] = g.now().Add(time.Duration(stats.RechargeMs) * time.Millisecond)

	p := &Plant{
		Kind: kind, Col: col, Row: row,
		HP: stats.HP, MaxHP: stats.HP,
		secondShot: -1, armTimer: -1, fuseTimer: -1,
	}
	if stats.ArmTimeMs > 0 {
		p.armTimer = stats.ArmTimeMs
	}
	if stats.ExplodeTimeMs > 0 {
		p.fuseTimer = stats.ExplodeTimeMs
	}
	g.plants = append(g.plants, p)
	g.grid[col][row] = p
	g.broadcast("plantPlaced", protocol.PlantPlaced{
		Type: string(kind), Col: col, Row: row, HP: p.HP, MaxHP: p.MaxHP,
		By: by, SunCount: g.sunCount, RechargeMs: stats.RechargeMs,
	})
	return true
}

func (g *Game) RemovePlant(col, row int, by string) bool {
	if col < 0 || col >= protocol.GridCols || row < 0 || row >= protocol.GridRows {
		return false
	}
	p := g.grid[col][row]
	if p == nil {
		return false
	}
	// Shovel refund: a quarter of the cost, rounded down.
	g.sunCount = minInt(protocol.CurrencyMax, g.sunCount+plantStats[p.Kind].Cost/4)
	p.HP = 0
	g.grid[col][row] = nil
	g.broadcast("plantRemoved", protocol.PlantRemoved{Col: col, Row: row, By: by, SunCount: g.sunCount})
	return true
}

// SpawnZombie handles both direct intents and wave-directed spawns. Wave
// spawns (free or purchased) bypass the per-type cooldown and the unit cost;
// only direct spawns pay and are throttled.
func (g *Game) SpawnZombie(kind ZombieKind, row int, by string, fromWave bool) bool {
	if row < 0 || row >= protocol.GridRows {
		return false
	}
	stats, ok := zombieStats[kind]
	if !ok {
		return false
	}
	rechargeMs := 0
	if !fromWave {
		if until, ok := g.zombieCooldowns[kind]; ok && g.now().Before(until) {
			return false
		}
		if g.brainCount < stats.Cost {
			return false
		}
		g.brainCount -= stats.Cost
		g.zombieCooldowns[kind] = g.now().Add(time.Duration(stats.RechargeMs) * time.Millisecond)
		rechargeMs = stats.RechargeMs
	}
	z := &Zombie{
		ID:   protocol.NewID(),
		Kind: kind, Row: row,
		X:  protocol.ZombieSpawnX,
		HP: stats.HP, MaxHP: stats.HP,
		Speed:   stats.Speed,
		CanJump: stats.CanJump,
	}
	g.zombies = append(g.zombies, z)
	g.broadcast("zombieSpawned", protocol.ZombieSpawned{
		ID: z.ID, Type: string(kind), Row: row, HP: z.HP, MaxHP: z.MaxHP,
		By: by, BrainCount: g.brainCount, RechargeMs: rechargeMs,
	})
	return true
}

func (g *Game) CollectSun(amount int) {
	g.sunCount = minInt(protocol.CurrencyMax, g.sunCount+amount)
	g.broadcast("sunUpdate", protocol.SunUpdate{SunCount: g.sunCount})
}

func (g *Game) CollectBrain(amount int) {
	g.brainCount = minInt(protocol.CurrencyMax, g.brainCount+amount)
	g.broadcast("brainUpdate", protocol.BrainUpdate{BrainCount: g.brainCount})
}

// State is the full reconciliation snapshot sent on join, restore and start.
func (g *Game) State() protocol.GameState {
	plants := make([]protocol.PlantState, 0, len(g.plants))
	for _, p := range g.plants {
		plants = append(plants, protocol.PlantState{
			Type: string(p.Kind), Col: p.Col, Row: p.Row, HP: p.HP, MaxHP: p.MaxHP, Armed: p.Armed,
		})
	}
	zombies := make([]protocol.ZombieState, 0, len(g.zombies))
	for _, z := range g.zombies {
		zombies = append(zombies, protocol.ZombieState{
			ID: z.ID, Type: string(z.Kind), Row: z.Row, X: z.X, HP: z.HP, MaxHP: z.MaxHP, Slowed: z.Slowed,
		})
	}
	return protocol.GameState{
		SunCount: g.sunCount, BrainCount: g.brainCount,
		WaveNumber: g.waveNumber, MaxWaves: g.maxWaves,
		Plants: plants, Zombies: zombies,
	}
}

// tickUpdate is the throttled per-tick delta payload.
func (g *Game) tickUpdate() protocol.GameUpdate {
	zombies := make([]protocol.ZombieTick, 0, len(g.zombies))
	for _, z := range g.zombies {
		zombies = append(zombies, protocol.ZombieTick{ID: z.ID, X: z.X, HP: z.HP, Slowed: z.Slowed})
	}
	plants := make([]protocol.PlantTick, 0, len(g.plants))
	for _, p := range g.plants {
		plants = append(plants, protocol.PlantTick{Col: p.Col, Row: p.Row, HP: p.HP})
	}
	return protocol.GameUpdate{
		Zombies: zombies, Plants: plants,
		SunCount: g.sunCount, BrainCount: g.brainCount, WaveNumber: g.waveNumber,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
