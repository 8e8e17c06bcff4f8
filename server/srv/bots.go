package srv

import "github.com/hellojuantu/pvz-5v5/shared/protocol"

// Bot controllers stand in for missing players. Each bot slot runs two
// tick-driven timers: a fast resource-collection loop and a slower strategy
// loop that walks a priority list and performs the first applicable action.
// Bots go through the exact intent entry points clients use.

const (
	botPlantCollectMs  = 3000
	botZombieCollectMs = 2000
	botStrategyBaseMs  = 1500
)

func (r *Room) tickBots(dt int) {
	for _, s := range r.plantSlots {
		if s.isBot {
			r.tickPlantBot(s, dt)
		}
	}
	for _, s := range r.zombieSlots {
		if s.isBot {
			r.tickZombieBot(s, dt)
		}
	}
}

func (r *Room) tickPlantBot(s *playerSlot, dt int) {
	s.collectTimer += dt
	if s.collectTimer >= botPlantCollectMs {
		s.collectTimer = 0
		r.g.CollectSun(25)
	}
	s.strategyTimer += dt
	if s.strategyTimer >= s.strategyPeriod {
		s.strategyTimer = 0
		s.strategyPeriod = botStrategyBaseMs + r.rng.Intn(botStrategyBaseMs)
		r.plantBotMove(s)
	}
}

func (r *Room) plantBotMove(s *playerSlot) {
	g := r.g

	// Interrupt: a zombie closing in gets a mine in its lane.
	for row := 0; row < protocol.GridRows; row++ {
		if g.sunCount < plantStats[Potatomine].Cost {
			break
		}
		threat := false
		for _, z := range g.zombies {
			if z.Row == row && z.HP > 0 && z.X < 300 {
				threat = true
				break
			}
		}
		if !threat {
			continue
		}
		for col := 5; col <= 7; col++ {
			if g.grid[col][row] == nil {
				g.PlacePlant(Potatomine, col, row, s.name)
				return
			}
		}
	}

	sunflowers, shooters, wallnuts := 0, 0, 0
	for _, p := range g.plants {
		switch p.Kind {
		case Sunflower:
			sunflowers++
		case Peashooter, Snowpea:
			shooters++
		case Wallnut:
			wallnuts++
		}
	}

	// Phase 1: sunflower economy in the back column.
	if sunflowers < 5 && g.sunCount >= plantStats[Sunflower].Cost {
		for row := 0; row < protocol.GridRows; row++ {
			if g.grid[0][row] == nil {
				g.PlacePlant(Sunflower, 0, row, s.name)
				return
			}
		}
	}

	// Phase 2: a shooter covering every row.
	if shooters < 10 && g.sunCount >= plantStats[Peashooter].Cost {
		for row := 0; row < protocol.GridRows; row++ {
			if r.rowHasShooter(row) {
				continue
			}
			for col := 2; col <= 3; col++ {
				if g.grid[col][row] == nil {
					kind := Peashooter
					if g.sunCount >= plantStats[Snowpea].Cost && r.rng.Float64() > 0.4 {
						kind = Snowpea
					}
					g.PlacePlant(kind, col, row, s.name)
					return
				}
			}
		}
	}

	// Phase 3: more sunflowers in the second column.
	if sunflowers < 10 && g.sunCount >= plantStats[Sunflower].Cost {
		for row := 0; row < protocol.GridRows; row++ {
			if g.grid[1][row] == nil {
				g.PlacePlant(Sunflower, 1, row, s.name)
				return
			}
		}
	}

	// Phase 4: a defensive wall per row.
	if wallnuts < 5 && g.sunCount >= plantStats[Wallnut].Cost {
		for row := 0; row < protocol.GridRows; row++ {
			hasWall := false
			for _, p := range g.plants {
				if p.Row == row && p.Kind == Wallnut {
					hasWall = true
					break
				}
			}
			if hasWall {
				continue
			}
			for col := 4; col <= 5; col++ {
				if g.grid[col][row] == nil {
					g.PlacePlant(Wallnut, col, row, s.name)
					return
				}
			}
		}
	}

	// Phase 5: reinforce thin rows with snowpeas.
	if g.sunCount >= plantStats[Snowpea].Cost {
		for row := 0; row < protocol.GridRows; row++ {
			count := 0
			for _, p := range g.plants {
				if p.Row == row && (p.Kind == Peashooter || p.Kind == Snowpea) {
					count++
				}
			}
			if count >= 3 {
				continue
			}
			for col := 2; col <= 4; col++ {
				if g.grid[col][row] == nil {
					g.PlacePlant(Snowpea, col, row, s.name)
					return
				}
			}
		}
	}
}

func (r *Room) rowHasShooter(row int) bool {
	for _, p := range r.g.plants {
		if p.Row == row && (p.Kind == Peashooter || p.Kind == Snowpea) {
			return true
		}
	}
	return false
}

func (r *Room) tickZombieBot(s *playerSlot, dt int) {
	s.collectTimer += dt
	if s.collectTimer >= botZombieCollectMs {
		s.collectTimer = 0
		r.g.CollectBrain(50)
	}
	s.strategyTimer += dt
	if s.strategyTimer >= s.strategyPeriod {
		s.strategyTimer = 0
		s.strategyPeriod = botStrategyBaseMs + r.rng.Intn(botStrategyBaseMs)
		r.zombieBotMove(s)
	}
}

func (r *Room) zombieBotMove(s *playerSlot) {
	g := r.g

	// Top priority: an affordable wave always goes out.
	if g.brainCount >= protocol.WaveCost {
		if g.waveNumber < g.maxWaves {
			g.BuyWave(s.name)
		}
		return
	}

	// Low on funds: grow the economy with a brain producer.
	if g.brainCount < 150 {
		if g.brainCount >= 75 {
			g.SpawnZombie(ZBrain, r.rng.Intn(protocol.GridRows), s.name, false)
		}
		return
	}

	// Probe the numerically weakest row.
	type rowInfo struct {
		row        int
		occupancy  int
		hasBlocker bool
		shooters   int
	}
	rows := make([]rowInfo, protocol.GridRows)
	for row := 0; row < protocol.GridRows; row++ {
		info := rowInfo{row: row}
		for _, p := range g.plants {
			if p.Row != row {
				continue
			}
			info.occupancy++
			switch p.Kind {
			case Wallnut, Tallnut:
				info.hasBlocker = true
			case Peashooter, Snowpea:
				info.shooters++
			}
		}
		for _, z := range g.zombies {
			if z.Row == row && z.HP > 0 {
				info.occupancy++
			}
		}
		rows[row] = info
	}
	target := rows[0]
	for _, info := range rows[1:] {
		if info.occupancy < target.occupancy {
			target = info
		}
	}

	kind := ZCone
	if target.hasBlocker && g.brainCount >= zombieStats[ZFootball].Cost {
		kind = ZFootball
	} else if target.shooters >= 2 && g.brainCount >= zombieStats[ZBucket].Cost {
		kind = ZBucket
	}
	if g.brainCount >= zombieStats[kind].Cost {
		g.SpawnZombie(kind, target.row, s.name, false)
	}
}
