package poker

import "fmt"

// Config holds the stakes and timing rules for a table. It is fixed
// for the lifetime of a table session (changing it requires a new
// Hand with a fresh Config).
type Config struct {
	SmallBlind    int64
	BigBlind      int64
	Ante          int64
	InitialStack  int64
	ActionTimeout int // seconds; 0 disables the timer
}

func (c Config) validate() error {
	if c.SmallBlind <= 0 || c.BigBlind <= 0 {
		return fmt.Errorf("poker: blinds must be positive")
	}
	if c.BigBlind < c.SmallBlind {
		return fmt.Errorf("poker: big blind must be >= small blind")
	}
	if c.Ante < 0 {
		return fmt.Errorf("poker: ante must not be negative")
	}
	if c.InitialStack < c.BigBlind {
		return fmt.Errorf("poker: initial stack must cover the big blind")
	}
	return nil
}
