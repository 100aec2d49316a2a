package domain

import "strings"

type Category string

const (
	CategoryConference Category = "conference"
	CategoryConcert    Category = "concert"
	CategoryTraining   Category = "training"
	CategorySeminar    Category = "seminar"
	CategorySport      Category = "sport"
	CategoryTheatre    Category = "theatre"
	CategoryExhibition Category = "exhibition"
	CategoryFestival   Category = "festival"
	CategoryOther      Category = "other"
)

var AllCategories = []Category{
	CategoryConference, CategoryConcert, CategoryTraining, CategorySeminar, CategorySport,
	CategoryTheatre, CategoryExhibition, CategoryFestival, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCategory normalizes user input ("  Concert " -> concert).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidDataMeta("invalid category", map[string]string{
			"category": "unknown category",
		})
	}
	return c, nil
}
