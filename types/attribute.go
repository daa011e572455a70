package types

// Attribute is a named label owned by a single user and attached to
// that user's recipes. Tags and ingredients share this shape.
//
// Names are unique per owner, so resolving a name for a user always
// yields the same record.
type Attribute struct {
	// ID is the unique identifier of the attribute.
	ID int `json:"id" db:"id"`

	// Name is the label text, 1 to 255 characters.
	Name string `json:"name" db:"name"`

	// UserID is the owner of the attribute. It is never exposed
	// and never changes after creation.
	UserID int `json:"-" db:"user_id"`
}

// Tag labels a recipe, e.g. "Breakfast" or "Vegan".
type Tag = Attribute

// Ingredient names something a recipe uses, e.g. "Salt".
type Ingredient = Attribute
