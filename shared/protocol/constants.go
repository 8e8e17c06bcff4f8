package protocol

const (
	// Battlefield geometry (pixels). Clients render against the same grid.
	GridCols = 9
	GridRows = 5
	CellSize = 110

	ZombieSpawnX = 1000 // far edge of the track
	BreachX      = -30  // past this the lawn is lost
	PeaExitX     = 1100 // projectiles die past this
	PeaSpeed     = 10   // px per tick

	// Update cadence
	TickMs     = 16
	SnapshotMs = 50

	// Economy
	CurrencyMax   = 9999
	StartingSun   = 500
	StartingBrain = 500
	WaveCost      = 800

	MaxWavesDefault = 15

	// Chat
	ChatMaxLen     = 100
	ChatHistoryMax = 50
	ChatReplayMax  = 20

	LeaderboardMax = 50
)
