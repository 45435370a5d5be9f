package model

// ImpactFactor credits CO2SavedKg to every diverted unit of Item.
type ImpactFactor struct {
	Item       string  `json:"item" db:"item"`
	CO2SavedKg float64 `json:"co2_saved_kg" db:"co2_saved_kg"`
}
