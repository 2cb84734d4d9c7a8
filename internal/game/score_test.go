package game_test

import (
	"testing"

	"jamb-online/internal/game"
)

func TestScoreUpperSection(t *testing.T) {
	dice := [5]int{3, 3, 3, 5, 1}

	if got := game.Score(game.CategoryThrees, dice); got != 9 {
		t.Errorf("threes: expected 9, got %d", got)
	}
	if got := game.Score(game.CategoryFives, dice); got != 5 {
		t.Errorf("fives: expected 5, got %d", got)
	}
	if got := game.Score(game.CategorySixes, dice); got != 0 {
		t.Errorf("sixes: expected 0, got %d", got)
	}
}

func TestScoreCombinations(t *testing.T) {
	tests := []struct {
		name     string
		category game.Category
		dice     [5]int
		want     int
	}{
		{"full house scores dice sum", game.CategoryFullHouse, [5]int{2, 2, 2, 3, 3}, 12},
		{"no full house", game.CategoryFullHouse, [5]int{2, 2, 2, 2, 3}, 0},
		{"three of a kind", game.CategoryThreeOfAKind, [5]int{4, 4, 4, 1, 2}, 15},
		{"four of a kind counts for three", game.CategoryThreeOfAKind, [5]int{4, 4, 4, 4, 2}, 18},
		{"four of a kind", game.CategoryFourOfAKind, [5]int{6, 6, 6, 6, 1}, 25},
		{"no four of a kind", game.CategoryFourOfAKind, [5]int{6, 6, 6, 1, 1}, 0},
		{"small straight", game.CategorySmallStraight, [5]int{1, 2, 3, 4, 6}, 30},
		{"small straight unordered", game.CategorySmallStraight, [5]int{4, 2, 6, 3, 5}, 30},
		{"no small straight", game.CategorySmallStraight, [5]int{1, 2, 2, 4, 5}, 0},
		{"large straight", game.CategoryLargeStraight, [5]int{2, 3, 4, 5, 6}, 40},
		{"no large straight", game.CategoryLargeStraight, [5]int{1, 2, 3, 4, 6}, 0},
		{"yahtzee", game.CategoryYahtzee, [5]int{5, 5, 5, 5, 5}, 50},
		{"no yahtzee", game.CategoryYahtzee, [5]int{5, 5, 5, 5, 4}, 0},
		{"chance sums everything", game.CategoryChance, [5]int{1, 2, 3, 4, 5}, 15},
	}

	for _, tt := range tests {
		if got := game.Score(tt.category, tt.dice); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
