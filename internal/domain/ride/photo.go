package ride

import "time"

// CarPhoto is an image attached to a driver, corresponding to the `car_photos` table.
type CarPhoto struct {
	ID        string
	DriverID  string
	URL       string
	CreatedAt time.Time
}
