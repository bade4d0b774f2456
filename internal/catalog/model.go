package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPizza     Category = "pizza"
	CategoryDrink     Category = "drink"
	CategoryAppetizer Category = "appetizer"
	CategoryDessert   Category = "dessert"
	CategoryPromotion Category = "promotion"
)

var categories = map[string]Category{
	string(CategoryPizza):     CategoryPizza,
	string(CategoryDrink):     CategoryDrink,
	string(CategoryAppetizer): CategoryAppetizer,
	string(CategoryDessert):   CategoryDessert,
	string(CategoryPromotion): CategoryPromotion,
}

func ParseCategory(s string) (Category, error) {
	c, ok := categories[s]
	if !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeFamily Size = "family"
	SizeSingle Size = "single"
	Size350ml  Size = "350ml"
	Size500ml  Size = "500ml"
	Size1l     Size = "1l"
	Size2l     Size = "2l"
)

var sizes = map[string]Size{
	string(SizeSmall):  SizeSmall,
	string(SizeMedium): SizeMedium,
	string(SizeLarge):  SizeLarge,
	string(SizeFamily): SizeFamily,
	string(SizeSingle): SizeSingle,
	string(Size350ml):  Size350ml,
	string(Size500ml):  Size500ml,
	string(Size1l):     Size1l,
	string(Size2l):     Size2l,
}

func ParseSize(s string) (Size, error) {
	sz, ok := sizes[s]
	if !ok {
		return "", ErrInvalidSize
	}
	return sz, nil
}

// Item is a menu entry. The JSON form is only used for the menu cache.
type Item struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description,omitempty"`
	Category        Category        `json:"category"`
	Size            Size            `json:"size"`
	Price           decimal.Decimal `json:"price"`
	IsAvailable     bool            `json:"is_available"`
	PreparationTime *int            `json:"preparation_time,omitempty"`
	Calories        *int            `json:"calories,omitempty"`
	Ingredients     []string        `json:"ingredients,omitempty"`
	Allergens       *string         `json:"allergens,omitempty"`
	ImageURL        *string         `json:"image_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CreateItemParams struct {
	Name            string
	Description     *string
	Category        Category
	Size            Size
	Price           decimal.Decimal
	IsAvailable     bool
	PreparationTime *int
	Calories        *int
	Ingredients     []string
	Allergens       *string
	ImageURL        *string
}

// UpdateItemParams carries the fields an admin may edit. Nil means unchanged.
type UpdateItemParams struct {
	Name            *string
	Description     *string
	Category        *Category
	Size            *Size
	Price           *decimal.Decimal
	IsAvailable     *bool
	PreparationTime *int
	Calories        *int
	Ingredients     *[]string
	Allergens       *string
	ImageURL        *string
}

func (p UpdateItemParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil && p.Size == nil &&
		p.Price == nil && p.IsAvailable == nil && p.PreparationTime == nil &&
		p.Calories == nil && p.Ingredients == nil && p.Allergens == nil && p.ImageURL == nil
}

type ListFilter struct {
	Offset        int
	Limit         int
	Category      *Category
	Size          *Size
	AvailableOnly bool
}

type MenuFilter struct {
	Category *Category
	Size     *Size
}

func (f MenuFilter) cacheKey() string {
	key := "menu"
	if f.Category != nil {
		key += ":c=" + string(*f.Category)
	}
	if f.Size != nil {
		key += ":s=" + string(*f.Size)
	}
	return key
}

type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

type DeleteResult struct {
	ID          int64
	Deleted     bool
	Deactivated bool
}

// ValidPrice reports whether p is positive with at most two decimal places.
func ValidPrice(p decimal.Decimal) bool {
	return p.IsPositive() && p.Equal(p.Round(2))
}
