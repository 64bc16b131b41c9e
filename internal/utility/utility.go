package utility

import "fmt"

// Heatmap cell colors: inactive days are dark gray, active days ramp from
// dim to bright orange with intensity relative to the busiest day.
const (
	inactiveColor = "#2d2d2d"
	minGreen      = 50
	maxGreen      = 140
)

// HeatColorHex returns the cell color for a day with count matches, scaled
// against max (the highest daily count in the window).
func HeatColorHex(count, max int) string {
	if count <= 0 {
		return inactiveColor
	}
	if max < count {
		max = count
	}
	intensity := float64(count) / float64(max)
	green := minGreen + int(float64(maxGreen-minGreen)*intensity)
	return fmt.Sprintf("#%02x%02x%02x", 255, green, 0)
}
