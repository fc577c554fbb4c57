package models

// Driver is a fleet driver. When the driver has a login, ID equals the
// authentication provider's uid; the core never re-derives it.
type Driver struct {
	ID            string      `json:"-"`
	FullName      string      `json:"full_name" binding:"required"`
	NationalID    string      `json:"national_id"`
	LicenseNumber string      `json:"license_number"`
	Phone         string      `json:"phone"`
	Email         string      `json:"email"`
	State         DriverState `json:"state"`
}
