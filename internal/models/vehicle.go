package models

type Vehicle struct {
	ID                 string       `json:"-"`
	Plate              string       `json:"plate" binding:"required"`
	Make               string       `json:"make"`
	Model              string       `json:"model"`
	Year               int          `json:"year"`
	CurrentMileage     int          `json:"current_mileage"`
	NextInspectionDate string       `json:"next_inspection_date"` // "dd/MM/yyyy"
	State              VehicleState `json:"state"`
}
