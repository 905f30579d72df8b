// Package listing holds the seller-side listing form and the workflow that
// uploads its media and persists it.
package listing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"panoproperty_backend/internal/model"
)

const (
	DefaultPanoramaLabel = "Living Room"
	MaxPanoramas         = 50
)

// File is an image chosen in the form.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// PanoramaInput is one row of the 360 photo list. URL is set for photos
// already stored when editing.
type PanoramaInput struct {
	Label string
	File  *File
	URL   string
}

func (p PanoramaInput) hasMedia() bool {
	return p.File != nil || p.URL != ""
}

func (p PanoramaInput) empty() bool {
	return strings.TrimSpace(p.Label) == "" && !p.hasMedia()
}

// Form mirrors the inputs as typed. Numeric fields stay strings until
// submission.
type Form struct {
	Title         string `form:"title" validate:"required"`
	Address       string `form:"address" validate:"required"`
	City          string `form:"city" validate:"required"`
	State         string `form:"state" validate:"required"`
	Zip           string `form:"zip"`
	Price         string `form:"price" validate:"required,numeric,nonnegative"`
	ListingType   string `form:"listingType" validate:"required,oneof=sale rent"`
	PropertyType  string `form:"propertyType" validate:"required,oneof=house condo apartment townhouse villa"`
	Bedrooms      string `form:"bedrooms" validate:"required,numeric,nonnegative"`
	Bathrooms     string `form:"bathrooms" validate:"required,numeric,nonnegative"`
	Sqft          string `form:"sqft" validate:"required,number,positive"`
	YearBuilt     string `form:"yearBuilt" validate:"required,number"`
	Description   string `form:"description"`
	FeaturesText  string `form:"features"`
	IsNew         bool   `form:"isNew"`
	IsFeatured    bool   `form:"isFeatured"`
	AgentName     string `form:"agentName" validate:"required"`
	AgentPhone    string `form:"agentPhone"`
	AgentEmail    string `form:"agentEmail" validate:"required"`
	AgentPhoto    string `form:"agentPhoto"`
	MatterportURL string `form:"matterportUrl"`
	ThumbnailURL  string `form:"thumbnailUrl"`

	Thumbnail *File           `form:"-"`
	Panoramas []PanoramaInput `form:"-"`
}

// NewForm returns an empty create form with one Living Room row.
func NewForm() Form {
	return Form{
		ListingType:  string(model.ListingTypeSale),
		PropertyType: string(model.PropertyTypeHouse),
		Panoramas:    []PanoramaInput{{Label: DefaultPanoramaLabel}},
	}
}

// FormFromProperty pre-fills the edit form. Stored panoramas are carried by
// URL so they pass through unchanged unless replaced.
func FormFromProperty(p model.Property) Form {
	f := Form{
		Title:         p.Title,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		Zip:           p.Zip,
		Price:         formatNumber(p.Price),
		ListingType:   string(p.ListingType),
		PropertyType:  string(p.PropertyType),
		Bedrooms:      formatNumber(p.Bedrooms),
		Bathrooms:     formatNumber(p.Bathrooms),
		Sqft:          strconv.Itoa(p.Sqft),
		YearBuilt:     strconv.Itoa(p.YearBuilt),
		Description:   p.Description,
		FeaturesText:  strings.Join(p.Features, ", "),
		IsNew:         p.IsNew,
		IsFeatured:    p.IsFeatured,
		AgentName:     p.Agent.Name,
		AgentPhone:    p.Agent.Phone,
		AgentEmail:    p.Agent.Email,
		AgentPhoto:    p.Agent.Photo,
		MatterportURL: p.MatterportURL,
		ThumbnailURL:  p.ThumbnailURL,
	}
	for _, pano := range p.Panoramas {
		f.Panoramas = append(f.Panoramas, PanoramaInput{Label: pano.Label, URL: pano.URL})
	}
	if len(f.Panoramas) == 0 {
		f.Panoramas = []PanoramaInput{{Label: DefaultPanoramaLabel}}
	}
	return f
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Reset clears the form back to its create state.
func (f *Form) Reset() {
	*f = NewForm()
}

func (f *Form) AddPanorama() {
	f.Panoramas = append(f.Panoramas, PanoramaInput{})
}

func (f *Form) RemovePanorama(i int) {
	if i < 0 || i >= len(f.Panoramas) {
		return
	}
	f.Panoramas = append(f.Panoramas[:i], f.Panoramas[i+1:]...)
}

// PanoramasValid requires at least one row with media, and every row to be
// either fully empty or labeled with media.
func (f Form) PanoramasValid() bool {
	hasAny := false
	for _, p := range f.Panoramas {
		if p.hasMedia() {
			hasAny = true
		}
		labeled := strings.TrimSpace(p.Label) != ""
		if !p.empty() && !(labeled && p.hasMedia()) {
			return false
		}
	}
	return hasAny
}

// ValidPanoramas returns the rows that will be stored, in order.
func (f Form) ValidPanoramas() []PanoramaInput {
	var out []PanoramaInput
	for _, p := range f.Panoramas {
		if strings.TrimSpace(p.Label) != "" && p.hasMedia() {
			out = append(out, p)
		}
	}
	return out
}

// Features splits the comma separated input, dropping blanks.
func (f Form) Features() []string {
	features := []string{}
	for _, part := range strings.Split(f.FeaturesText, ",") {
		if part = strings.TrimSpace(part); part != "" {
			features = append(features, part)
		}
	}
	return features
}

var validate = newValidator()

// newValidator adds sign checks for numbers kept as strings. The builtin
// gt and gte compare string length.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(fl.Field().String(), 64)
		return err == nil && n >= 0
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(fl.Field().String(), 64)
		return err == nil && n > 0
	})
	return v
}

func (f Form) trimmed() Form {
	t := f
	for _, s := range []*string{
		&t.Title, &t.Address, &t.City, &t.State, &t.Price, &t.Bedrooms,
		&t.Bathrooms, &t.Sqft, &t.YearBuilt, &t.AgentName, &t.AgentEmail,
	} {
		*s = strings.TrimSpace(*s)
	}
	return t
}

// Validate reports every blocking problem of the form.
func (f Form) Validate() error {
	verr := &ValidationError{Fields: map[string]string{}}

	if err := validate.Struct(f.trimmed()); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Fields[fieldName(fe)] = describe(fe)
		}
	}
	switch {
	case len(f.Panoramas) > MaxPanoramas:
		verr.Fields["panoramas"] = ErrTooManyPanoramas.Error()
	case !f.PanoramasValid():
		verr.Fields["panoramas"] = ErrPanoramasInvalid.Error()
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// CanSubmit is the gate of the submit button.
func (f Form) CanSubmit() bool {
	return f.Validate() == nil
}

func fieldName(fe validator.FieldError) string {
	name := fe.StructField()
	return strings.ToLower(name[:1]) + name[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must be a number"
	case "number":
		return "must be a whole number"
	case "nonnegative":
		return "must not be negative"
	case "positive":
		return "must be greater than zero"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

// property converts the validated form into the listing it describes.
func (f Form) property() model.Property {
	t := f.trimmed()
	price, _ := strconv.ParseFloat(t.Price, 64)
	beds, _ := strconv.ParseFloat(t.Bedrooms, 64)
	baths, _ := strconv.ParseFloat(t.Bathrooms, 64)
	sqft, _ := strconv.Atoi(t.Sqft)
	year, _ := strconv.Atoi(t.YearBuilt)

	return model.Property{
		Title:         f.Title,
		Address:       f.Address,
		City:          f.City,
		State:         f.State,
		Zip:           f.Zip,
		Price:         price,
		ListingType:   model.ListingType(f.ListingType),
		PropertyType:  model.PropertyType(f.PropertyType),
		Bedrooms:      beds,
		Bathrooms:     baths,
		Sqft:          sqft,
		YearBuilt:     year,
		IsNew:         f.IsNew,
		IsFeatured:    f.IsFeatured,
		Description:   f.Description,
		Features:      f.Features(),
		MatterportURL: f.MatterportURL,
		Agent: model.Agent{
			Name:  f.AgentName,
			Phone: f.AgentPhone,
			Email: f.AgentEmail,
			Photo: f.AgentPhoto,
		},
	}
}
