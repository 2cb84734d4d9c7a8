package game

type Category string

const (
	CategoryOnes          Category = "ones"
	CategoryTwos          Category = "twos"
	CategoryThrees        Category = "threes"
	CategoryFours         Category = "fours"
	CategoryFives         Category = "fives"
	CategorySixes         Category = "sixes"
	CategoryThreeOfAKind  Category = "three_of_a_kind"
	CategoryFourOfAKind   Category = "four_of_a_kind"
	CategoryFullHouse     Category = "full_house"
	CategorySmallStraight Category = "small_straight"
	CategoryLargeStraight Category = "large_straight"
	CategoryYahtzee       Category = "yahtzee"
	CategoryChance        Category = "chance"
)

// Categories returns all score categories in sheet order.
func Categories() []Category {
	return []Category{
		CategoryOnes, CategoryTwos, CategoryThrees,
		CategoryFours, CategoryFives, CategorySixes,
		CategoryThreeOfAKind, CategoryFourOfAKind, CategoryFullHouse,
		CategorySmallStraight, CategoryLargeStraight,
		CategoryYahtzee, CategoryChance,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryOnes, CategoryTwos, CategoryThrees, CategoryFours,
		CategoryFives, CategorySixes, CategoryThreeOfAKind,
		CategoryFourOfAKind, CategoryFullHouse, CategorySmallStraight,
		CategoryLargeStraight, CategoryYahtzee, CategoryChance:
		return true
	}
	return false
}
