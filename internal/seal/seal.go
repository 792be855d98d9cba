// Package seal defines the hand seal vocabulary and the per-frame
// debouncer that turns noisy classifier output into stable seal events.
package seal

import "time"

// Label identifies a hand seal by its romaji name.
type Label string

// None is the sentinel for "no recognized seal".
const None Label = ""

// The twelve zodiac seals.
const (
	Rat    Label = "ne"
	Ox     Label = "ushi"
	Tiger  Label = "tora"
	Hare   Label = "u"
	Dragon Label = "tatsu"
	Snake  Label = "mi"
	Horse  Label = "uma"
	Ram    Label = "hitsuji"
	Monkey Label = "saru"
	Bird   Label = "tori"
	Dog    Label = "inu"
	Boar   Label = "i"
)

// DisplayNames maps seal labels to their English display names.
var DisplayNames = map[Label]string{
	Rat:    "Rat",
	Ox:     "Ox",
	Tiger:  "Tiger",
	Hare:   "Hare",
	Dragon: "Dragon",
	Snake:  "Snake",
	Horse:  "Horse",
	Ram:    "Ram",
	Monkey: "Monkey",
	Bird:   "Bird",
	Dog:    "Dog",
	Boar:   "Boar",
}

// Display returns the English display name for the label, falling back
// to the romaji for labels outside the zodiac.
func (l Label) Display() string {
	if name, ok := DisplayNames[l]; ok {
		return name
	}
	return string(l)
}

// Event is emitted once when a seal becomes stable.
type Event struct {
	Label     Label     `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}
