package dto

import (
	"tourbook/internal/domains/tour/model"
)

type TourResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	MaxPeople int    `json:"max_people"`
}

func (r *TourResponse) FromModel(model model.Tour) {
	r.ID = model.ID
	r.Title = model.Title
	r.Price = model.Price
	r.MaxPeople = model.MaxPeople
}
