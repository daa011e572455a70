package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe represents a user's recipe together with its tags and ingredients.
// Every tag and ingredient linked to a recipe has the same owner as the recipe.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// UserID is the owner of the recipe. It is set from the authenticated
	// caller on creation and never changes afterwards.
	UserID int `json:"-" db:"user_id"`

	// Title is the human-readable name of the recipe.
	Title string `json:"title" db:"title"`

	// Description is free-form text. It may be empty.
	Description string `json:"description" db:"description"`

	// TimeMinutes is the preparation time in minutes.
	TimeMinutes int `json:"time_minutes" db:"time_minutes"`

	// Price is a fixed-point amount with at most two decimal places.
	Price decimal.Decimal `json:"price" db:"price"`

	// Link is an optional URL pointing at the source of the recipe.
	Link string `json:"link" db:"link"`

	// Image is the object storage key of the uploaded image, if any.
	Image string `json:"image,omitempty" db:"image"`

	// Tags are the labels attached to the recipe.
	Tags []Tag `json:"tags" db:"-"`

	// Ingredients are the ingredients attached to the recipe.
	Ingredients []Ingredient `json:"ingredients" db:"-"`

	// CreatedAt is the timestamp at which the recipe was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the recipe.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecipeFilter narrows a recipe listing. A recipe matches when it carries
// any of the listed tag IDs and any of the listed ingredient IDs; an empty
// list does not filter.
type RecipeFilter struct {
	TagIDs        []int
	IngredientIDs []int
}
