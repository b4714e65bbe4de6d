package domain

// WeeklyXpConfig is the per-call leaderboard configuration. It is owned
// by the upstream configuration system and passed into every engine
// operation, so a config change takes effect without restarting.
type WeeklyXpConfig struct {
	Enabled              bool
	ExpirationTimeInDays int
}
