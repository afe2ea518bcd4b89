package models

// Item is an entry of the in-memory catalogue.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// ItemInput is the create/update body. ID is assigned by the store.
type ItemInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	IsAvailable bool    `json:"is_available" default:"true"`
}
