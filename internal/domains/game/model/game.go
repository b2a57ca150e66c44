package model

import (
	"time"
)

// Game là entity duy nhất của hệ thống
type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Platform    Platform  `json:"platform"`
	Status      Status    `json:"status"`
	Rating      float64   `json:"rating"`
	HoursPlayed float64   `json:"hoursPlayed"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Developer   *string   `json:"developer,omitempty"`
	Publisher   *string   `json:"publisher,omitempty"`
	Genres      []string  `json:"genres"`
	Platforms   []string  `json:"platforms"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so stores never hand out shared slices or pointers.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.ImageURL = cloneString(g.ImageURL)
	c.Notes = cloneString(g.Notes)
	c.Developer = cloneString(g.Developer)
	c.Publisher = cloneString(g.Publisher)
	c.Genres = append([]string{}, g.Genres...)
	c.Platforms = append([]string{}, g.Platforms...)
	return &c
}

// GameSummary là projection dùng cho autocomplete
type GameSummary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	CoverImage *string `json:"coverImage,omitempty"`
}

func (g *Game) ToSummary() GameSummary {
	return GameSummary{
		ID:         g.ID,
		Title:      g.Title,
		CoverImage: g.ImageURL,
	}
}

// SearchLimit là số kết quả tối đa cho autocomplete
const SearchLimit = 10

// Sortable fields
const (
	SortTitle       = "title"
	SortRating      = "rating"
	SortStatus      = "status"
	SortPlatform    = "platform"
	SortHoursPlayed = "hoursPlayed"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListFilter mô tả query của list operation
type ListFilter struct {
	Status string
	Search string
	Sort   string
	Order  string
}

// Normalize điền default cho sort/order và chuẩn hoá status filter.
// Unknown sort/order values fall back to title/asc.
func (f ListFilter) Normalize() ListFilter {
	switch f.Sort {
	case SortTitle, SortRating, SortStatus, SortPlatform, SortHoursPlayed:
	default:
		f.Sort = SortTitle
	}
	switch f.Order {
	case OrderAsc, OrderDesc:
	default:
		f.Order = OrderAsc
	}
	if f.Status != "" {
		f.Status = string(NormalizeStatus(f.Status))
	}
	return f
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
