package domain

// reserveSeats and releaseSeats hold the counter arithmetic shared by
// Event.AvailableSeats and SeatInventory.RemainingSeats.

func reserveSeats(remaining, qty int) (int, error) {
	if qty <= 0 {
		return remaining, ErrInvalidDataMeta("invalid quantity", map[string]string{
			"quantity": "must be > 0",
		})
	}
	if qty > remaining {
		return remaining, ErrInsufficientInventory(qty, remaining)
	}
	return remaining - qty, nil
}

func releaseSeats(remaining, total, qty int) (int, error) {
	if qty <= 0 {
		return remaining, ErrInvalidDataMeta("invalid quantity", map[string]string{
			"quantity": "must be > 0",
		})
	}
	next := remaining + qty
	if next > total {
		next = total
	}
	return next, nil
}
