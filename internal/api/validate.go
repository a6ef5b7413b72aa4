package api

import (
	"fmt"
	"time"

	"crewtime/internal/model"
)

const dateLayout = "2006-01-02"

func validateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %s", date)
	}
	return nil
}

func validatePlacementRequest(req *model.PlacementRequest) error {
	if err := validateDate(req.Date); err != nil {
		return err
	}
	if req.DurationMinutes < 0 {
		return fmt.Errorf("durationMinutes must be >= 0")
	}
	if req.DesiredStartMinutes < 0 {
		return fmt.Errorf("desiredStartMinutes must be >= 0")
	}
	return nil
}
