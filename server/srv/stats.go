package srv

// Plant and zombie kinds are tagged variants; behavior dispatch in game.go
// switches on the kind rather than probing optional fields.

type PlantKind string

const (
	Sunflower  PlantKind = "sunflower"
	Peashooter PlantKind = "peashooter"
	Repeater   PlantKind = "repeater"
	Snowpea    PlantKind = "snowpea"
	Wallnut    PlantKind = "wallnut"
	Tallnut    PlantKind = "tallnut"
	Chomper    PlantKind = "chomper"
	Torchwood  PlantKind = "torchwood"
	Potatomine PlantKind = "potatomine"
	Cherrybomb PlantKind = "cherrybomb"
)

type PlantStats struct {
	HP   int
	Cost int

	SunIntervalMs   int // sunflower
	ShootIntervalMs int // shooters
	Damage          int
	Double          bool // repeater: second pea shortly after the first
	Slows           bool // snowpea: pea halves target speed on first hit
	BlockJump       bool // tallnut: cancels a pole-vault permanently
	FireBoost       bool // torchwood: empowers passing peas
	EatCooldownMs   int  // chomper digestion
	ArmTimeMs       int  // potatomine
	ExplodeTimeMs   int  // cherrybomb fuse
	Radius          float64

	RechargeMs int
}

var plantStats = map[PlantKind]PlantStats{
	Sunflower:  {HP: 150, Cost: 50, SunIntervalMs: 10000, RechargeMs: 5000},
	Peashooter: {HP: 150, Cost: 100, ShootIntervalMs: 1400, Damage: 25, RechargeMs: 5000},
	Repeater:   {HP: 150, Cost: 200, ShootIntervalMs: 1400, Damage: 25, Double: true, RechargeMs: 5000},
	Snowpea:    {HP: 150, Cost: 175, ShootIntervalMs: 1400, Damage: 20, Slows: true, RechargeMs: 5000},
	Wallnut:    {HP: 800, Cost: 75, RechargeMs: 20000},
	Tallnut:    {HP: 1200, Cost: 125, BlockJump: true, RechargeMs: 20000},
	Chomper:    {HP: 200, Cost: 150, EatCooldownMs: 30000, RechargeMs: 5000},
	Torchwood:  {HP: 300, Cost: 175, FireBoost: true, RechargeMs: 5000},
	Potatomine: {HP: 100, Cost: 25, ArmTimeMs: 15000, Damage: 1200, Radius: 150, RechargeMs: 20000},
	Cherrybomb: {HP: 1000, Cost: 175, ExplodeTimeMs: 1500, Radius: 150, RechargeMs: 35000},
}

type ZombieKind string

const (
	ZNormal      ZombieKind = "normal"
	ZCone        ZombieKind = "cone"
	ZBucket      ZombieKind = "bucket"
	ZFlag        ZombieKind = "flag"
	ZNewspaper   ZombieKind = "newspaper"
	ZPolevaulter ZombieKind = "polevaulter"
	ZFootball    ZombieKind = "football"
	ZBrain       ZombieKind = "brain"
)

type ZombieStats struct {
	HP     int
	Speed  float64 // px per tick
	Damage int
	Cost   int

	CanJump         bool // polevaulter: bypasses the first blocker once
	BrainIntervalMs int  // brain producer, shrinks with wave number

	RechargeMs int
}

var zombieStats = map[ZombieKind]ZombieStats{
	ZNormal:      {HP: 200, Speed: 0.3, Damage: 30, Cost: 50, RechargeMs: 2000},
	ZCone:        {HP: 500, Speed: 0.28, Damage: 30, Cost: 100, RechargeMs: 3000},
	ZBucket:      {HP: 900, Speed: 0.22, Damage: 30, Cost: 175, RechargeMs: 5000},
	ZFlag:        {HP: 180, Speed: 0.45, Damage: 35, Cost: 75, RechargeMs: 2500},
	ZNewspaper:   {HP: 300, Speed: 0.25, Damage: 25, Cost: 80, RechargeMs: 3000},
	ZPolevaulter: {HP: 350, Speed: 0.4, Damage: 30, Cost: 125, CanJump: true, RechargeMs: 4000},
	ZFootball:    {HP: 1200, Speed: 0.38, Damage: 45, Cost: 275, RechargeMs: 10000},
	ZBrain:       {HP: 25, Speed: 0.18, Damage: 0, Cost: 50, BrainIntervalMs: 6000, RechargeMs: 3000},
}
