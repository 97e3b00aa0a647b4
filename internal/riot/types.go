package riot

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ProfileIconID int `json:"profileIconId"`
	SummonerLevel int `json:"summonerLevel"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameDatetime int64              `json:"game_datetime"` // epoch millis
	GameType     string             `json:"tft_game_type"`
	QueueID      int                `json:"queue_id"`
	SetNumber    int                `json:"tft_set_number"`
	Participants []MatchParticipant `json:"participants"`
}

type MatchParticipant struct {
	PUUID     string `json:"puuid"`
	Placement int    `json:"placement"`
	Level     int    `json:"level"`
}
