package srv

import "github.com/hellojuantu/pvz-5v5/shared/protocol"

// The wave director drives the attacking side's spawns through the same
// entry point as manual spawns. Staggered spawns are queued with per-entry
// delays and drained by the tick, so a pause freezes a wave mid-spawn.

type pendingSpawn struct {
	delayMs int
	kind    ZombieKind
	row     int
	by      string
}

func (g *Game) tickWaves(dt int) {
	g.nextWaveMs -= dt
	if g.nextWaveMs <= 0 {
		g.nextWaveMs = 45000
		g.autoWave()
	}

	if len(g.pending) == 0 {
		return
	}
	rest := g.pending[:0]
	for _, ps := range g.pending {
		ps.delayMs -= dt
		if ps.delayMs <= 0 {
			g.SpawnZombie(ps.kind, ps.row, ps.by, true)
		} else {
			rest = append(rest, ps)
		}
	}
	g.pending = rest
}

// autoWave is the free timer-driven wave. Size equals the wave index (capped),
// composition hardens by wave bracket. Past the wave cap it does nothing; the
// match ends once the field is cleared.
func (g *Game) autoWave() {
	if g.waveNumber >= g.maxWaves {
		return
	}
	g.waveNumber++
	count := minInt(g.waveNumber, 15)
	g.broadcast("waveStart", protocol.WaveStart{
		WaveNumber: g.waveNumber, MaxWaves: g.maxWaves, ZombieCount: count,
		Auto: true, IsFinalWave: g.waveNumber == g.maxWaves,
	})

	table := freeWaveTable(g.waveNumber)
	for i := 0; i < count; i++ {
		g.pending = append(g.pending, pendingSpawn{
			delayMs: i * 600,
			kind:    table[g.rng.Intn(len(table))],
			row:     g.rng.Intn(protocol.GridRows),
			by:      "wave",
		})
	}
}

func freeWaveTable(wave int) []ZombieKind {
	switch {
	case wave <= 3:
		return []ZombieKind{ZNormal, ZNormal, ZCone}
	case wave <= 6:
		return []ZombieKind{ZNormal, ZCone, ZCone, ZBucket}
	case wave <= 9:
		return []ZombieKind{ZCone, ZBucket, ZBucket, ZFlag}
	case wave <= 12:
		return []ZombieKind{ZCone, ZBucket, ZBucket, ZFootball, ZPolevaulter}
	default:
		return []ZombieKind{ZBucket, ZBucket, ZFootball, ZFootball, ZPolevaulter}
	}
}

// BuyWave is the purchased wave. Scales more gently than the free wave.
// At the wave cap it performs an end-of-match check instead of spawning;
// funds are only deducted for a wave that actually starts.
func (g *Game) BuyWave(by string) bool {
	if g.brainCount < protocol.WaveCost {
		return false
	}
	if g.waveNumber >= g.maxWaves {
		g.checkWin()
		return false
	}
	g.brainCount -= protocol.WaveCost
	g.waveNumber++
	count := minInt(2+g.waveNumber/3, 6)
	g.broadcast("waveStart", protocol.WaveStart{
		WaveNumber: g.waveNumber, MaxWaves: g.maxWaves, ZombieCount: count,
		BrainCount: g.brainCount, By: by, IsFinalWave: g.waveNumber == g.maxWaves,
	})

	for i := 0; i < count; i++ {
		table := buyWaveTable(g.waveNumber)
		if g.waveNumber >= 8 && g.rng.Float64() < 0.2 {
			table = append(table, ZFootball)
		}
		g.pending = append(g.pending, pendingSpawn{
			delayMs: i * 1000,
			kind:    table[g.rng.Intn(len(table))],
			row:     g.rng.Intn(protocol.GridRows),
			by:      by,
		})
	}
	return true
}

func buyWaveTable(wave int) []ZombieKind {
	switch {
	case wave <= 2:
		return []ZombieKind{ZNormal}
	case wave <= 4:
		return []ZombieKind{ZNormal, ZNormal, ZCone}
	case wave <= 6:
		return []ZombieKind{ZNormal, ZCone, ZCone, ZBucket}
	default:
		return []ZombieKind{ZNormal, ZCone, ZBucket, ZFlag, ZNewspaper}
	}
}
