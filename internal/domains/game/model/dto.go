package model

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Field limits
const (
	MaxTitleLength  = 200
	MaxNotesLength  = 2000
	MaxNameLength   = 200
	MaxTagLength    = 100
	MaxTagCount     = 50
	MinRating       = 0.0
	MaxRating       = 10.0
	MinHoursPlayed  = 0.0
	objectIDPattern = `^[0-9a-fA-F]{24}$`
)

var objectIDRegexp = regexp.MustCompile(objectIDPattern)

// ========================================
// REQUEST DTOs
// ========================================

// CreateGameRequest là payload của POST /games
type CreateGameRequest struct {
	Title       string   `json:"title"`
	Platform    string   `json:"platform"`
	Status      *string  `json:"status,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	HoursPlayed *float64 `json:"hoursPlayed,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Developer   *string  `json:"developer,omitempty"`
	Publisher   *string  `json:"publisher,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
}

// Validate chuẩn hoá rồi kiểm tra payload. Trả về *GameError với per-field details.
func (r *CreateGameRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Platform = strings.TrimSpace(r.Platform)
	r.Status = normalizeStatusPtr(r.Status)
	if r.Status != nil && *r.Status == "" {
		// blank status on create means "use the default"
		r.Status = nil
	}
	r.ImageURL = trimPtr(r.ImageURL)
	r.Developer = trimPtr(r.Developer)
	r.Publisher = trimPtr(r.Publisher)

	err := validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, MaxTitleLength).Error("title must be at most 200 characters"),
		),
		validation.Field(&r.Platform,
			validation.Required.Error("platform is required"),
			validation.In(platformValues()...).Error("platform must be one of the supported platforms"),
		),
		validation.Field(&r.Status, statusRules()...),
		validation.Field(&r.Rating, ratingRules()...),
		validation.Field(&r.HoursPlayed, hoursRules()...),
		validation.Field(&r.ImageURL, is.URL.Error("imageUrl must be a valid URL")),
		validation.Field(&r.Notes, validation.RuneLength(0, MaxNotesLength).Error("notes must be at most 2000 characters")),
		validation.Field(&r.Developer, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.Publisher, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.Genres, tagRules()...),
		validation.Field(&r.Platforms, tagRules()...),
	)
	return toGameError(err)
}

// ToGame dựng entity với default values. ID và timestamps do repository gán.
func (r *CreateGameRequest) ToGame() *Game {
	g := &Game{
		Title:     r.Title,
		Platform:  Platform(r.Platform),
		Status:    DefaultStatus,
		ImageURL:  nilIfEmpty(r.ImageURL),
		Notes:     nilIfEmpty(r.Notes),
		Developer: nilIfEmpty(r.Developer),
		Publisher: nilIfEmpty(r.Publisher),
		Genres:    append([]string{}, r.Genres...),
		Platforms: append([]string{}, r.Platforms...),
	}
	if r.Status != nil {
		g.Status = Status(*r.Status)
	}
	if r.Rating != nil {
		g.Rating = *r.Rating
	}
	if r.HoursPlayed != nil {
		g.HoursPlayed = *r.HoursPlayed
	}
	return g
}

// UpdateGameRequest là payload của PUT /games/:id. Mọi field đều optional.
type UpdateGameRequest struct {
	Title       *string   `json:"title,omitempty"`
	Platform    *string   `json:"platform,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	HoursPlayed *float64  `json:"hoursPlayed,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Developer   *string   `json:"developer,omitempty"`
	Publisher   *string   `json:"publisher,omitempty"`
	Genres      *[]string `json:"genres,omitempty"`
	Platforms   *[]string `json:"platforms,omitempty"`
}

func (r *UpdateGameRequest) Validate() error {
	r.Title = trimPtr(r.Title)
	r.Platform = trimPtr(r.Platform)
	r.Status = normalizeStatusPtr(r.Status)
	r.ImageURL = trimPtr(r.ImageURL)
	r.Developer = trimPtr(r.Developer)
	r.Publisher = trimPtr(r.Publisher)

	err := validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty.Error("title cannot be empty"),
			validation.RuneLength(1, MaxTitleLength).Error("title must be at most 200 characters"),
		),
		validation.Field(&r.Platform,
			validation.NilOrNotEmpty.Error("platform cannot be empty"),
			validation.In(platformValues()...).Error("platform must be one of the supported platforms"),
		),
		validation.Field(&r.Status, statusRules()...),
		validation.Field(&r.Rating, ratingRules()...),
		validation.Field(&r.HoursPlayed, hoursRules()...),
		validation.Field(&r.ImageURL, is.URL.Error("imageUrl must be a valid URL")),
		validation.Field(&r.Notes, validation.RuneLength(0, MaxNotesLength).Error("notes must be at most 2000 characters")),
		validation.Field(&r.Developer, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.Publisher, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.Genres, validation.By(optionalTags)),
		validation.Field(&r.Platforms, validation.By(optionalTags)),
	)
	return toGameError(err)
}

// Apply ghi đè các field có mặt trong request lên g.
// Empty optional strings clear the field.
func (r *UpdateGameRequest) Apply(g *Game) {
	if r.Title != nil {
		g.Title = *r.Title
	}
	if r.Platform != nil {
		g.Platform = Platform(*r.Platform)
	}
	if r.Status != nil {
		g.Status = Status(*r.Status)
	}
	if r.Rating != nil {
		g.Rating = *r.Rating
	}
	if r.HoursPlayed != nil {
		g.HoursPlayed = *r.HoursPlayed
	}
	if r.ImageURL != nil {
		g.ImageURL = nilIfEmpty(r.ImageURL)
	}
	if r.Notes != nil {
		g.Notes = nilIfEmpty(r.Notes)
	}
	if r.Developer != nil {
		g.Developer = nilIfEmpty(r.Developer)
	}
	if r.Publisher != nil {
		g.Publisher = nilIfEmpty(r.Publisher)
	}
	if r.Genres != nil {
		g.Genres = append([]string{}, (*r.Genres)...)
	}
	if r.Platforms != nil {
		g.Platforms = append([]string{}, (*r.Platforms)...)
	}
}

// Validate kiểm tra invariants của entity sau khi merge partial update
func (g *Game) Validate() error {
	err := validation.ValidateStruct(g,
		validation.Field(&g.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&g.Platform, validation.Required, validation.By(func(v interface{}) error {
			if !v.(Platform).IsValid() {
				return errors.New("platform must be one of the supported platforms")
			}
			return nil
		})),
		validation.Field(&g.Status, validation.Required, validation.By(func(v interface{}) error {
			if !v.(Status).IsValid() {
				return errors.New("status must be one of the supported statuses")
			}
			return nil
		})),
		validation.Field(&g.Rating, ratingRules()...),
		validation.Field(&g.HoursPlayed, hoursRules()...),
	)
	return toGameError(err)
}

// ValidateID kiểm tra id có đúng format ObjectID (24 ký tự hex) không
func ValidateID(id string) error {
	err := validation.Validate(id,
		validation.Required,
		validation.Match(objectIDRegexp),
	)
	if err != nil {
		return NewInvalidGameID(id)
	}
	return nil
}

// ========================================
// SHARED RULES
// ========================================

func statusRules() []validation.Rule {
	return []validation.Rule{
		validation.NilOrNotEmpty.Error("status cannot be empty"),
		validation.In(statusValues()...).Error("status must be one of: Playing, Completed, On Hold, Dropped, Plan to Play"),
	}
}

func ratingRules() []validation.Rule {
	return []validation.Rule{
		validation.Min(MinRating).Error("rating must be between 0 and 10"),
		validation.Max(MaxRating).Error("rating must be between 0 and 10"),
	}
}

func hoursRules() []validation.Rule {
	return []validation.Rule{
		validation.Min(MinHoursPlayed).Error("hoursPlayed must be zero or greater"),
	}
}

func tagRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(0, MaxTagCount),
		validation.Each(
			validation.Required,
			validation.RuneLength(1, MaxTagLength),
		),
	}
}

// optionalTags validates a *[]string that may be absent from a partial update
func optionalTags(value interface{}) error {
	tags, _ := value.(*[]string)
	if tags == nil {
		return nil
	}
	return validation.Validate(*tags, tagRules()...)
}

// toGameError chuyển validation.Errors của ozzo thành *GameError
func toGameError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return internal
		}
		return NewValidationError(map[string]string{"body": err.Error()})
	}

	details := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		details[field] = fieldErr.Error()
	}
	return NewValidationError(details)
}

func normalizeStatusPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := string(NormalizeStatus(*s))
	return &v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
