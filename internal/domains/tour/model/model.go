package model

import "tourbook/shared/model"

const (
	TableName  = "tours"
	EntityName = "tour"

	FieldID        = "id"
	FieldTitle     = "title"
	FieldPrice     = "price"
	FieldMaxPeople = "max_people"
)

type Tour struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	Price     string `db:"price"`
	MaxPeople int    `db:"max_people"`
	model.Metadata
}
