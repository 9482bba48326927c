package validate

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one rejected field, reported with its wire name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PointInput is a point submission as it arrives on the wire. Numeric fields
// stay strings until they pass validation.
type PointInput struct {
	Name      string `form:"name" validate:"required"`
	Email     string `form:"email" validate:"required,email"`
	Whatsapp  string `form:"whatsapp" validate:"required,number"`
	Latitude  string `form:"latitude" validate:"required,numeric,latitude"`
	Longitude string `form:"longitude" validate:"required,numeric,longitude"`
	City      string `form:"city" validate:"required"`
	UF        string `form:"uf" validate:"required,max=2"`
	Items     string `form:"items" validate:"required,idlist"`

	// cityKey is the form key the city came in under, used in field errors
	cityKey string
}

// Point is a submission that passed validation.
type Point struct {
	Name      string
	Email     string
	Whatsapp  string
	Latitude  float64
	Longitude float64
	City      string
	UF        string
	ItemIDs   []int64
}

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("idlist", func(fl validator.FieldLevel) bool {
			_, ok := ItemIDs(fl.Field().String())
			return ok
		})
	})
	return v
}

// FromForm reads a submission through get, which returns "" for absent keys.
// The city may arrive as "cidade".
func FromForm(get func(key string) string) PointInput {
	in := PointInput{
		Name:      get("name"),
		Email:     get("email"),
		Whatsapp:  get("whatsapp"),
		Latitude:  get("latitude"),
		Longitude: get("longitude"),
		City:      get("city"),
		UF:        get("uf"),
		Items:     get("items"),
	}
	if strings.TrimSpace(in.City) == "" && get("cidade") != "" {
		in.City = get("cidade")
		in.cityKey = "cidade"
	}
	return in
}

// Check validates every field and reports all failures, not just the first.
// Blank values count as missing.
func Check(in PointInput) (Point, []FieldError) {
	in = trimmed(in)
	err := engine().Struct(in)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Point{}, []FieldError{{Field: "_", Message: err.Error()}}
		}
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			name := fe.Field()
			if name == "city" && in.cityKey != "" {
				name = in.cityKey
			}
			out = append(out, FieldError{Field: name, Message: message(fe, name)})
		}
		return Point{}, out
	}

	lat, _ := strconv.ParseFloat(in.Latitude, 64)
	lng, _ := strconv.ParseFloat(in.Longitude, 64)
	ids, _ := ItemIDs(in.Items)
	return Point{
		Name:      in.Name,
		Email:     in.Email,
		Whatsapp:  in.Whatsapp,
		Latitude:  lat,
		Longitude: lng,
		City:      in.City,
		UF:        in.UF,
		ItemIDs:   ids,
	}, nil
}

func trimmed(in PointInput) PointInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Whatsapp = strings.TrimSpace(in.Whatsapp)
	in.Latitude = strings.TrimSpace(in.Latitude)
	in.Longitude = strings.TrimSpace(in.Longitude)
	in.City = strings.TrimSpace(in.City)
	in.UF = strings.TrimSpace(in.UF)
	in.Items = strings.TrimSpace(in.Items)
	return in
}

func message(fe validator.FieldError, f string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", f)
	case "email":
		return fmt.Sprintf("%q must be a valid email", f)
	case "number", "numeric":
		return fmt.Sprintf("%q must be a number", f)
	case "latitude":
		return fmt.Sprintf("%q must be between -90 and 90", f)
	case "longitude":
		return fmt.Sprintf("%q must be between -180 and 180", f)
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", f, fe.Param())
	case "idlist":
		return fmt.Sprintf("%q must be a comma-separated list of item ids", f)
	}
	return fmt.Sprintf("%q is invalid", f)
}

// ItemIDs parses "1, 3,3" into [1 3]. Order of first appearance is kept.
func ItemIDs(s string) ([]int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ",")
	seen := make(map[int64]bool, len(parts))
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 1 {
			return nil, false
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, true
}

// ID validates a numeric path identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// UF validates an optional state filter: empty, or two letters.
func UF(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", true
	}
	if len(s) != 2 || s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return "", false
	}
	return s, true
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Image checks an upload by size and by its sniffed content type.
func Image(size int64, head []byte, limit int64) *FieldError {
	if size <= 0 {
		return &FieldError{Field: "image", Message: `"image" is empty`}
	}
	if limit > 0 && size > limit {
		return &FieldError{Field: "image", Message: fmt.Sprintf(`"image" must be at most %d bytes`, limit)}
	}
	ct := http.DetectContentType(head)
	if !imageTypes[ct] {
		return &FieldError{Field: "image", Message: `"image" must be a jpeg, png, gif or webp file`}
	}
	return nil
}
