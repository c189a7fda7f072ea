package domain

// Clamp bounds a requested cart quantity to [0, stock]. A negative stock is
// treated as zero.
func Clamp(requested, stock int64) int64 {
	if stock < 0 {
		stock = 0
	}
	if requested < 0 {
		return 0
	}
	if requested > stock {
		return stock
	}
	return requested
}

// CanIncrement reports whether one more unit fits into the current stock.
func CanIncrement(current, stock int64) bool {
	return Clamp(current+1, stock) == current+1
}
