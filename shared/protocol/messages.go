package protocol

// ================= C -> S =================

type CreateRoom struct {
	Mode     int `json:"mode"`     // players per side
	MaxWaves int `json:"maxWaves"` // 0 -> default
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
	Team   string `json:"team"` // "plants" | "zombies"
}

type AddBot struct {
	Team string `json:"team"`
}

type ListRooms struct{}

type GetLeaderboard struct{}

// Restore rebinds a dropped player to their in-progress room. The token is
// the one handed out in JoinRoomResult; the server will not rebind on a bare
// durable id.
type Restore struct {
	DurableID string `json:"durableId"`
	Token     string `json:"token"`
	Name      string `json:"name"`
}

type SetName struct {
	Name string `json:"name"`
}

type PlacePlant struct {
	Type string `json:"type"`
	Col  int    `json:"col"`
	Row  int    `json:"row"`
}

type RemovePlant struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type SpawnZombie struct {
	Type string `json:"type"`
	Row  int    `json:"row"`
}

type BuyWave struct{}

type CollectSun struct {
	Amount int `json:"amount"`
}

type CollectBrain struct {
	Amount int `json:"amount"`
}

type Chat struct {
	Message string `json:"message"`
}

type LeaveRoom struct{}

type LeaveGame struct {
	ForceLeave bool `json:"forceLeave"`
}

// ================= shared views =================

type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
}

type PlayerList struct {
	Plants  []PlayerInfo `json:"plants"`
	Zombies []PlayerInfo `json:"zombies"`
}

type RoomInfo struct {
	ID       string `json:"id"`
	Mode     int    `json:"mode"`
	MaxWaves int    `json:"maxWaves"`
	HostName string `json:"hostName"`
	Plants   int    `json:"plants"`
	Zombies  int    `json:"zombies"`
	State    string `json:"state"`
}

type PlantState struct {
	Type  string `json:"type"`
	Col   int    `json:"col"`
	Row   int    `json:"row"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
	Armed bool   `json:"armed"`
}

type ZombieState struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type"`
	Row    int     `json:"row"`
	X      float64 `json:"x"`
	HP     int     `json:"hp"`
	MaxHP  int     `json:"maxHp"`
	Slowed bool    `json:"slowed"`
}

type GameState struct {
	SunCount   int           `json:"sunCount"`
	BrainCount int           `json:"brainCount"`
	WaveNumber int           `json:"waveNumber"`
	MaxWaves   int           `json:"maxWaves"`
	Plants     []PlantState  `json:"plants"`
	Zombies    []ZombieState `json:"zombies"`
}

type ChatMsg struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Time    int64  `json:"time"` // unix ms
	System  bool   `json:"system,omitempty"`
}

// ================= S -> C acks =================

type CreateRoomResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
	Mode     int    `json:"mode,omitempty"`
	MaxWaves int    `json:"maxWaves,omitempty"`
}

type JoinRoomResult struct {
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
	Team       string     `json:"team,omitempty"`
	Mode       int        `json:"mode,omitempty"`
	MaxWaves   int        `json:"maxWaves,omitempty"`
	State      string     `json:"state,omitempty"`
	PlayerList PlayerList `json:"playerList"`
	GameState  GameState  `json:"gameState"`
	DurableID  string     `json:"durableId,omitempty"`
	Token      string     `json:"token,omitempty"`
}

type AddBotResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type RestoreResult struct {
	Restored    bool       `json:"restored"`
	RoomID      string     `json:"roomId,omitempty"`
	Team        string     `json:"team,omitempty"`
	Mode        int        `json:"mode,omitempty"`
	MaxWaves    int        `json:"maxWaves,omitempty"`
	State       string     `json:"state,omitempty"`
	PlayerList  PlayerList `json:"playerList"`
	GameState   GameState  `json:"gameState"`
	ChatHistory []ChatMsg  `json:"chatHistory,omitempty"`
}

// ================= S -> C events =================

type RoomList struct {
	Items []RoomInfo `json:"items"`
}

type PlayerUpdate struct {
	PlayerList PlayerList `json:"playerList"`
	Info       RoomInfo   `json:"info"`
}

type GameStart struct {
	PlayerList PlayerList `json:"playerList"`
	Mode       int        `json:"mode"`
	MaxWaves   int        `json:"maxWaves"`
	GameState
}

type GamePaused struct {
	Reason string `json:"reason"`
}

type GameResumed struct{}

type PlantPlaced struct {
	Type       string `json:"type"`
	Col        int    `json:"col"`
	Row        int    `json:"row"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"maxHp"`
	By         string `json:"by"`
	SunCount   int    `json:"sunCount"`
	RechargeMs int    `json:"rechargeMs"`
}

type PlantRemoved struct {
	Col      int    `json:"col"`
	Row      int    `json:"row"`
	By       string `json:"by"`
	SunCount int    `json:"sunCount"`
}

type PlantDamage struct {
	Col int `json:"col"`
	Row int `json:"row"`
	HP  int `json:"hp"`
}

type PlantDie struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type ZombieSpawned struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Row        int    `json:"row"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"maxHp"`
	By         string `json:"by"`
	BrainCount int    `json:"brainCount"`
	RechargeMs int    `json:"rechargeMs"`
}

type ZombieDie struct {
	ID int64 `json:"id"`
}

type ZombieJump struct {
	ID    int64   `json:"id"`
	FromX float64 `json:"fromX"`
	ToX   float64 `json:"toX"`
}

type Shoot struct {
	ID   int64   `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Row  int     `json:"row"`
	Type string  `json:"type"` // "normal" | "ice"
}

type PeaHit struct {
	PeaID    int64 `json:"peaId"`
	ZombieID int64 `json:"zombieId"`
	ZombieHP int   `json:"zombieHp"`
	Slowed   bool  `json:"slowed"`
	Fire     bool  `json:"fire"`
}

type PeaMiss struct {
	PeaID int64 `json:"peaId"`
}

type PeaFire struct {
	PeaID int64 `json:"peaId"`
}

type ChomperEat struct {
	Col      int   `json:"col"`
	Row      int   `json:"row"`
	ZombieID int64 `json:"zombieId"`
}

type ChomperReady struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type MineArmed struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type MineExplode struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type CherryExplode struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type PlantSun struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

type SkySun struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SkyBrain struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ZombieBrain struct {
	ID  int64   `json:"id"`
	X   float64 `json:"x"`
	Row int     `json:"row"`
}

type SunUpdate struct {
	SunCount int `json:"sunCount"`
}

type BrainUpdate struct {
	BrainCount int `json:"brainCount"`
}

type WaveStart struct {
	WaveNumber  int    `json:"waveNumber"`
	MaxWaves    int    `json:"maxWaves"`
	ZombieCount int    `json:"zombieCount"`
	Auto        bool   `json:"auto,omitempty"`
	IsFinalWave bool   `json:"isFinalWave"`
	BrainCount  int    `json:"brainCount,omitempty"`
	By          string `json:"by,omitempty"`
}

type ZombieTick struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	HP     int     `json:"hp"`
	Slowed bool    `json:"slowed"`
}

type PlantTick struct {
	Col int `json:"col"`
	Row int `json:"row"`
	HP  int `json:"hp"`
}

// GameUpdate is the throttled reconciliation snapshot.
type GameUpdate struct {
	Zombies    []ZombieTick `json:"zombies"`
	Plants     []PlantTick  `json:"plants"`
	SunCount   int          `json:"sunCount"`
	BrainCount int          `json:"brainCount"`
	WaveNumber int          `json:"waveNumber"`
}

type GameEnd struct {
	Winner     string `json:"winner"` // "plants" | "zombies"
	WaveNumber int    `json:"waveNumber"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}
