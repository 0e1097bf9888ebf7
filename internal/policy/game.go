package policy

// GamePayout is the total returned for a Lucky Numbers round given the number
// of matched picks. The stake is always debited, so the net effect on the
// balance is GamePayout - stake. Payouts are whole kobo: on an odd stake
// the half-stake match rounds down and the house keeps the odd kobo.
func GamePayout(stake int64, matches int) int64 {
	switch matches {
	case 4:
		return stake * 4
	case 3:
		return stake
	case 2:
		return stake / 2
	default:
		return 0
	}
}

// NumberGuessPayout returns the stake plus twice the stake on a correct guess.
func NumberGuessPayout(stake int64, won bool) int64 {
	if !won {
		return 0
	}
	return stake * 3
}
