package game

// Score computes the value of the given dice for a category.
func Score(category Category, dice [NumDice]int) int {
	counts := make(map[int]int, NumDice)
	sum := 0
	for _, v := range dice {
		counts[v]++
		sum += v
	}

	switch category {
	case CategoryOnes:
		return counts[1] * 1
	case CategoryTwos:
		return counts[2] * 2
	case CategoryThrees:
		return counts[3] * 3
	case CategoryFours:
		return counts[4] * 4
	case CategoryFives:
		return counts[5] * 5
	case CategorySixes:
		return counts[6] * 6
	case CategoryThreeOfAKind:
		if hasOfAKind(counts, 3) {
			return sum
		}
		return 0
	case CategoryFourOfAKind:
		if hasOfAKind(counts, 4) {
			return sum
		}
		return 0
	case CategoryFullHouse:
		if hasFullHouse(counts) {
			return sum
		}
		return 0
	case CategorySmallStraight:
		if longestRun(counts) >= 4 {
			return 30
		}
		return 0
	case CategoryLargeStraight:
		if longestRun(counts) >= 5 {
			return 40
		}
		return 0
	case CategoryYahtzee:
		if hasOfAKind(counts, 5) {
			return 50
		}
		return 0
	case CategoryChance:
		return sum
	}
	return 0
}

func hasOfAKind(counts map[int]int, n int) bool {
	for _, c := range counts {
		if c >= n {
			return true
		}
	}
	return false
}

func hasFullHouse(counts map[int]int) bool {
	three, two := false, false
	for _, c := range counts {
		switch c {
		case 3:
			three = true
		case 2:
			two = true
		}
	}
	return three && two
}

func longestRun(counts map[int]int) int {
	best, streak := 0, 0
	for v := 1; v <= 6; v++ {
		if counts[v] > 0 {
			streak++
			if streak > best {
				best = streak
			}
		} else {
			streak = 0
		}
	}
	return best
}
