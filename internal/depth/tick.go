package depth

// TickSize returns the IDX price fraction for a price
func TickSize(price float64) float64 {
	switch {
	case price < 200:
		return 1
	case price < 500:
		return 2
	case price < 2000:
		return 5
	case price < 5000:
		return 10
	default:
		return 25
	}
}
