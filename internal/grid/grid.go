// Package grid quantizes minute durations onto the fixed scheduling grid.
// Rounding is always upward so travel time is never under-represented.
package grid

import "fmt"

// GridMinutes is the size of one grid slot. Every derived boundary lands on a
// multiple of it.
const GridMinutes = 15

// MinutesToSlots returns ceil(minutes / GridMinutes). Negative input is a
// caller bug and panics.
func MinutesToSlots(minutes int) int {
	return minutesToSlots(minutes, GridMinutes)
}

// SlotsToMinutes returns slots * GridMinutes.
func SlotsToMinutes(slots int) int {
	if slots < 0 {
		panic(fmt.Sprintf("grid: negative slot count %d", slots))
	}
	return slots * GridMinutes
}

// Quantize rounds minutes up to the next grid boundary.
func Quantize(minutes int) int {
	return SlotsToMinutes(MinutesToSlots(minutes))
}

// Aligned reports whether minutes sits on a grid boundary.
func Aligned(minutes int) bool {
	return minutes%GridMinutes == 0
}

func minutesToSlots(minutes, size int) int {
	if size <= 0 {
		panic(fmt.Sprintf("grid: non-positive slot size %d", size))
	}
	if minutes < 0 {
		panic(fmt.Sprintf("grid: negative duration %d", minutes))
	}
	return (minutes + size - 1) / size
}
