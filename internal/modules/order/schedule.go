// README: Delivery and pickup windows (date plus half-day slot).
package order

import (
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
)

func (s Slot) Valid() bool {
	return s == SlotMorning || s == SlotAfternoon
}

// Window is a calendar day (UTC midnight) and a slot.
type Window struct {
	Date time.Time `json:"-"`
	Slot Slot      `json:"slot"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date string `json:"date"`
		Slot Slot   `json:"slot"`
	}{Date: w.Date.Format(DateLayout), Slot: w.Slot})
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays is the number of days between delivery and pickup, at least 1.
func RentalDays(delivery, pickup time.Time) int {
	days := int(truncateDay(pickup).Sub(truncateDay(delivery)).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// validateWindows checks slot values and ordering. A same-day rental must be
// delivered in the morning and picked up in the afternoon.
func validateWindows(delivery, pickup Window, today time.Time) error {
	if delivery.Date.IsZero() || pickup.Date.IsZero() {
		return fmt.Errorf("delivery and pickup dates are required")
	}
	if !delivery.Slot.Valid() || !pickup.Slot.Valid() {
		return fmt.Errorf("slots must be %q or %q", SlotMorning, SlotAfternoon)
	}
	d, p := truncateDay(delivery.Date), truncateDay(pickup.Date)
	if d.Before(truncateDay(today)) {
		return fmt.Errorf("delivery date %s is in the past", d.Format(DateLayout))
	}
	if p.Before(d) {
		return fmt.Errorf("pickup date must not be before delivery date")
	}
	if p.Equal(d) && (delivery.Slot != SlotMorning || pickup.Slot != SlotAfternoon) {
		return fmt.Errorf("same-day rental needs a morning delivery and an afternoon pickup")
	}
	return nil
}
