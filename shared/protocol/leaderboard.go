package protocol

// LeaderboardEntry is an immutable record of a finished match.
type LeaderboardEntry struct {
	Date          string `json:"date"` // RFC 3339
	Winner        string `json:"winner"`
	WaveNumber    int    `json:"waveNumber"`
	Mode          int    `json:"mode"`
	PlantPlayers  string `json:"plantPlayers"`
	ZombiePlayers string `json:"zombiePlayers"`
}

type Leaderboard struct {
	Items []LeaderboardEntry `json:"items"`
}
