package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/browse"
	"panoproperty_backend/internal/deeplink"
	"panoproperty_backend/internal/listing"
	"panoproperty_backend/internal/middleware"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/internal/session"
)

const featuredPickCount = 3

// propertyView is a listing with the values the cards and detail view show.
type propertyView struct {
	model.Property
	FormattedPrice string `json:"formattedPrice"`
	PricePerSqft   int64  `json:"pricePerSqft"`
	CardImage      string `json:"cardImage"`
	Saved          bool   `json:"saved"`
}

func viewOf(p model.Property, holder *session.Holder) propertyView {
	v := propertyView{
		Property:       p,
		FormattedPrice: browse.FormatPrice(p.Price, p.ListingType),
		PricePerSqft:   browse.PricePerSqft(p),
		CardImage:      p.CardImage(),
	}
	if holder != nil {
		v.Saved = holder.IsSaved(p.ID)
	}
	return v
}

func viewsOf(ps []model.Property, holder *session.Holder) []propertyView {
	views := make([]propertyView, 0, len(ps))
	for _, p := range ps {
		views = append(views, viewOf(p, holder))
	}
	return views
}

// ListProperties filters and sorts the loaded listings. The featured picks
// are only returned for the unfiltered default view.
func (h *Handler) ListProperties(c *fiber.Ctx) error {
	if err := h.Catalog.Load(c.UserContext()); err != nil {
		return h.fail(c, err)
	}

	filters := browse.Filters{}
	if err := c.QueryParser(&filters); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid filters",
		})
	}
	key := browse.ParseSortKey(c.Query("sort"))

	holder := middleware.Session(c)
	all := h.Catalog.All()
	results := browse.Apply(all, filters, key)

	resp := fiber.Map{
		"properties": viewsOf(results, holder),
		"count":      len(results),
		"sort":       key,
		"facets":     browse.BuildFacets(all),
	}
	if browse.ShowFeaturedPicks(filters, key) {
		resp["featured"] = viewsOf(browse.FeaturedPicks(all, featuredPickCount), holder)
	}
	return c.JSON(resp)
}

func (h *Handler) GetProperty(c *fiber.Ctx) error {
	if err := h.Catalog.Load(c.UserContext()); err != nil {
		return h.fail(c, err)
	}

	property, ok := h.Catalog.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Property not found",
		})
	}

	shareURL, err := deeplink.Build(h.PublicBaseURL, deeplink.Target{Kind: deeplink.KindProperty, ID: property.ID})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"property": viewOf(property, middleware.Session(c)),
		"shareUrl": shareURL,
	})
}

// GetSeller returns a seller's public profile and listings. Sellers without
// a profile row still get their listings under the fallback name.
func (h *Handler) GetSeller(c *fiber.Ctx) error {
	sellerID := c.Params("id")

	profile := model.Profile{ID: sellerID, Role: model.RoleSeller}
	row, err := h.Profiles.GetProfile(c.UserContext(), sellerID)
	switch {
	case err == nil:
		profile = model.ProfileFromRow(*row)
		profile.Email = ""
	case !errors.Is(err, backend.ErrNotFound):
		return h.fail(c, err)
	}

	properties, err := h.Catalog.BySeller(c.UserContext(), sellerID)
	if err != nil {
		return h.fail(c, err)
	}

	shareURL, err := deeplink.Build(h.PublicBaseURL, deeplink.Target{Kind: deeplink.KindSeller, ID: sellerID})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"seller":      profile,
		"displayName": profile.DisplayName(),
		"properties":  viewsOf(properties, middleware.Session(c)),
		"shareUrl":    shareURL,
	})
}

// ListMyProperties returns the signed-in seller's listings from the store.
func (h *Handler) ListMyProperties(c *fiber.Ctx) error {
	holder := middleware.Session(c)
	properties, err := h.Catalog.BySeller(c.UserContext(), holder.UserID())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"properties": viewsOf(properties, holder),
	})
}

// GetPropertyForm returns the edit form of an owned listing pre-filled.
func (h *Handler) GetPropertyForm(c *fiber.Ctx) error {
	property := middleware.Property(c)
	form := listing.FormFromProperty(*property)
	return c.JSON(fiber.Map{
		"form":  form,
		"state": h.Workflow.State(middleware.Session(c).UserID(), property),
	})
}

func (h *Handler) CreateProperty(c *fiber.Ctx) error {
	form, err := parseListingForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	userID := middleware.Session(c).UserID()
	property, err := h.Workflow.Submit(c.UserContext(), userID, form, nil)
	if err != nil {
		h.syncPartial(c, err)
		return h.fail(c, err)
	}

	h.Catalog.Created(*property)
	return c.Status(fiber.StatusCreated).JSON(viewOf(*property, middleware.Session(c)))
}

func (h *Handler) UpdateProperty(c *fiber.Ctx) error {
	form, err := parseListingForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	existing := middleware.Property(c)
	userID := middleware.Session(c).UserID()
	property, err := h.Workflow.Submit(c.UserContext(), userID, form, existing)
	if err != nil {
		h.syncPartial(c, err)
		return h.fail(c, err)
	}

	h.Catalog.Updated(*property)
	return c.JSON(viewOf(*property, middleware.Session(c)))
}

func (h *Handler) DeleteProperty(c *fiber.Ctx) error {
	property := middleware.Property(c)
	if err := h.Workflow.Delete(c.UserContext(), middleware.Session(c).UserID(), *property); err != nil {
		return h.fail(c, err)
	}

	h.Catalog.Deleted(property.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

// syncPartial brings the loaded list in line with a row that was written
// before the submission failed.
func (h *Handler) syncPartial(c *fiber.Ctx, err error) {
	var partial *listing.PartialWriteError
	if !errors.As(err, &partial) {
		return
	}
	property, ferr := h.Catalog.Fetch(c.UserContext(), partial.PropertyID)
	if ferr != nil {
		return
	}
	if _, known := h.Catalog.Get(property.ID); known {
		h.Catalog.Updated(property)
	} else {
		h.Catalog.Created(property)
	}
}

// parseListingForm reads a multipart listing submission. Panorama rows come
// as repeated panorama_label and panorama_url values, with the file of row i
// under panorama_file_<i>.
func parseListingForm(c *fiber.Ctx) (*listing.Form, error) {
	form := listing.NewForm()
	if err := c.BodyParser(&form); err != nil {
		return nil, fmt.Errorf("invalid listing form: %w", err)
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("listing must be sent as multipart/form-data")
	}

	if headers := mf.File["thumbnail"]; len(headers) > 0 {
		file, err := readFile(headers[0])
		if err != nil {
			return nil, err
		}
		form.Thumbnail = file
	}

	labels := mf.Value["panorama_label"]
	urls := mf.Value["panorama_url"]
	rows := max(len(labels), len(urls))
	for key := range mf.File {
		index, ok := strings.CutPrefix(key, "panorama_file_")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(index)
		if err != nil || i < 0 || i >= listing.MaxPanoramas {
			return nil, fmt.Errorf("unexpected file field %q", key)
		}
		rows = max(rows, i+1)
	}
	if rows > listing.MaxPanoramas {
		return nil, listing.ErrTooManyPanoramas
	}

	form.Panoramas = make([]listing.PanoramaInput, 0, rows)
	for i := 0; i < rows; i++ {
		row := listing.PanoramaInput{}
		if i < len(labels) {
			row.Label = labels[i]
		}
		if i < len(urls) {
			row.URL = strings.TrimSpace(urls[i])
		}
		if headers := mf.File[fmt.Sprintf("panorama_file_%d", i)]; len(headers) > 0 {
			file, err := readFile(headers[0])
			if err != nil {
				return nil, err
			}
			row.File = file
		}
		form.Panoramas = append(form.Panoramas, row)
	}
	return &form, nil
}

func readFile(header *multipart.FileHeader) (*listing.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", header.Filename, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", header.Filename, err)
	}
	return &listing.File{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Body:        body,
	}, nil
}
