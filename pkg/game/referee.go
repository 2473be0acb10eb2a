package game

import (
	"sort"

	"github.com/cbodonnell/roomsync/pkg/kinematic"
)

// Standing is a seated player's state as seen by a Referee.
type Standing struct {
	UserID   int
	IngameID int
	Position kinematic.Vector
	Distance float64
}

// Referee decides when a room ends on its own and how players rank.
type Referee interface {
	// Finished reports whether the room reached its natural end after tick.
	Finished(tick int, standings []Standing) bool
	// Rank returns user ids, winner first.
	Rank(standings []Standing) []int
}

// RaceReferee ends a room after a fixed number of ticks and ranks players
// by distance travelled forward.
type RaceReferee struct {
	Ticks int
}

func (r RaceReferee) Finished(tick int, _ []Standing) bool {
	ticks := r.Ticks
	if ticks <= 0 {
		ticks = DefaultRaceTicks
	}
	return tick >= ticks
}

func (r RaceReferee) Rank(standings []Standing) []int {
	sorted := append([]Standing{}, standings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Distance != sorted[j].Distance {
			return sorted[i].Distance > sorted[j].Distance
		}
		return sorted[i].IngameID < sorted[j].IngameID
	})
	order := make([]int, len(sorted))
	for i, s := range sorted {
		order[i] = s.UserID
	}
	return order
}
