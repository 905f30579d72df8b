package listing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/backend/memory"
	"panoproperty_backend/internal/model"
)

const seller = "0b8e5d2a-5c1e-4d6e-9a0f-3f1b7c2d4e51"

var fixedNow = time.UnixMilli(1718000000000)

func newWorkflow(t *testing.T) (*Workflow, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	w := NewWorkflow(store, store, zap.NewNop())
	w.now = func() time.Time { return fixedNow }
	return w, store
}

func pngFile(t *testing.T, name string) *File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &File{Name: name, ContentType: "image/png", Body: buf.Bytes()}
}

func uploads(calls []string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, memory.OpUpload+" ") {
			out = append(out, strings.TrimPrefix(c, memory.OpUpload+" "))
		}
	}
	return out
}

func seedListing(t *testing.T, store *memory.Store, panoramas ...model.Panorama) model.Property {
	t.Helper()
	ctx := context.Background()
	owner := seller
	p := model.Property{
		SellerID: &owner, Title: "Harbor Townhome", Address: "9 Pier Rd", City: "Seattle", State: "WA",
		Price: 5400, ListingType: model.ListingTypeRent, PropertyType: model.PropertyTypeTownhouse,
		Bedrooms: 3, Bathrooms: 2, Sqft: 1900, YearBuilt: 2021,
		Agent: model.Agent{Name: "Noah", Email: "noah@panoproperty.com"},
	}
	row := model.PropertyToRow(p)
	require.NoError(t, store.InsertProperty(ctx, &row))
	photos := model.PhotoRowsFor(row.ID, panoramas)
	require.NoError(t, store.InsertPhotos(ctx, photos))
	store.ResetCalls()
	return model.PropertyFromRow(row, photos)
}

func TestSubmitWithoutPanoramasWritesNothing(t *testing.T) {
	w, store := newWorkflow(t)
	form := validForm()
	form.Panoramas = []PanoramaInput{{Label: "Living Room"}}
	form.Thumbnail = pngFile(t, "front.png")

	_, err := w.Submit(context.Background(), seller, &form, nil)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "panoramas")
	require.Empty(t, store.Calls())
}

func TestSubmitCreateRunsStepsInOrder(t *testing.T) {
	w, store := newWorkflow(t)
	form := validForm()
	form.Thumbnail = pngFile(t, "front.png")
	form.Panoramas = append(form.Panoramas,
		PanoramaInput{},
		PanoramaInput{Label: " Primary  Bedroom ", File: &File{Name: "bed.webp", Body: []byte("pano")}},
	)

	p, err := w.Submit(context.Background(), seller, &form, nil)
	require.NoError(t, err)

	calls := store.Calls()
	thumbPath := seller + "/thumbnails/1718000000000.png"
	require.Equal(t, []string{
		memory.OpUpload + " " + backend.BucketThumbnails + "/" + thumbPath,
		memory.OpInsertProperty,
		memory.OpUpload + " " + backend.BucketPanoramas + "/" + seller + "/" + p.ID + "/1-living-room.jpg",
		memory.OpUpload + " " + backend.BucketPanoramas + "/" + seller + "/" + p.ID + "/2-primary-bedroom.webp",
		memory.OpInsertPhotos,
	}, calls)

	require.Equal(t, seller, *p.SellerID)
	require.Equal(t, store.PublicURL(backend.BucketThumbnails, thumbPath), p.ThumbnailURL)
	require.Equal(t, []string{"Private balcony", "EV charging", "Rooftop deck"}, p.Features)
	require.Equal(t, 1460, p.Sqft)
	require.Equal(t, "skyline-modern-loft", p.Slug)
	require.Equal(t, []model.Panorama{
		{URL: store.PublicURL(backend.BucketPanoramas, seller+"/"+p.ID+"/1-living-room.jpg"), Label: "Living Room"},
		{URL: store.PublicURL(backend.BucketPanoramas, seller+"/"+p.ID+"/2-primary-bedroom.webp"), Label: "Primary  Bedroom"},
	}, p.Panoramas)

	photos := store.Photos()
	require.Len(t, photos, 2)
	require.Equal(t, 1, photos[0].SortOrder)
	require.Equal(t, 2, photos[1].SortOrder)

	require.Equal(t, NewForm(), form)
	require.Equal(t, StateEditing, w.State(seller, nil))
}

func TestSubmitEditReplacesPhotos(t *testing.T) {
	w, store := newWorkflow(t)
	existing := seedListing(t, store,
		model.Panorama{URL: "https://cdn.test/1.jpg", Label: "Living Room"},
		model.Panorama{URL: "https://cdn.test/2.jpg", Label: "Kitchen"},
	)

	form := FormFromProperty(existing)
	form.Title = "Harbor Townhome, Renovated"
	form.Panoramas = append(form.Panoramas, PanoramaInput{Label: "Patio", File: &File{Name: "patio.jpg", Body: []byte("pano")}})

	p, err := w.Submit(context.Background(), seller, &form, &existing)
	require.NoError(t, err)
	require.Equal(t, existing.ID, p.ID)
	require.Equal(t, existing.Slug, p.Slug)
	require.Equal(t, "Harbor Townhome, Renovated", p.Title)

	require.Equal(t, []string{
		memory.OpUpdateProperty,
		memory.OpUpload + " " + backend.BucketPanoramas + "/" + seller + "/" + existing.ID + "/3-patio.jpg",
		memory.OpDeletePhotos,
		memory.OpInsertPhotos,
	}, store.Calls())

	photos, err := store.ListPhotos(context.Background(), []string{existing.ID})
	require.NoError(t, err)
	require.Len(t, photos, 3)
	for i, photo := range photos {
		require.Equal(t, i+1, photo.SortOrder)
	}
	require.Equal(t, "https://cdn.test/1.jpg", photos[0].URL)
	require.Equal(t, "https://cdn.test/2.jpg", photos[1].URL)
	require.Equal(t, "Patio", photos[2].Label)
}

func TestSubmitEditRequiresOwner(t *testing.T) {
	w, store := newWorkflow(t)
	existing := seedListing(t, store, model.Panorama{URL: "https://cdn.test/1.jpg", Label: "Living Room"})
	form := FormFromProperty(existing)

	_, err := w.Submit(context.Background(), "someone-else", &form, &existing)
	require.ErrorIs(t, err, ErrNotOwner)
	require.Empty(t, store.Calls())
}

func TestSubmitThumbnailFailureStopsBeforeRow(t *testing.T) {
	w, store := newWorkflow(t)
	store.Fail(memory.OpUpload, errors.New("bucket not found"))
	form := validForm()
	form.Thumbnail = pngFile(t, "front.png")

	_, err := w.Submit(context.Background(), seller, &form, nil)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StepThumbnail, stepErr.Step)
	require.Equal(t, "bucket not found", err.Error())
	require.NotContains(t, store.Calls(), memory.OpInsertProperty)
	require.NotEqual(t, NewForm(), form)
}

func TestSubmitRowFailureIsClean(t *testing.T) {
	w, store := newWorkflow(t)
	store.Fail(memory.OpInsertProperty, errors.New("permission denied for table properties"))
	form := validForm()

	_, err := w.Submit(context.Background(), seller, &form, nil)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StepSaveProperty, stepErr.Step)
	require.Empty(t, uploads(store.Calls()))
}

func TestSubmitPanoramaFailureKeepsRow(t *testing.T) {
	w, store := newWorkflow(t)
	form := validForm()
	store.Fail(memory.OpUpload, errors.New("payload too large"))

	_, err := w.Submit(context.Background(), seller, &form, nil)

	var partial *PartialWriteError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, StepUploadPanorama, partial.Step)
	require.NotEmpty(t, partial.PropertyID)

	row, err := store.GetProperty(context.Background(), partial.PropertyID)
	require.NoError(t, err)
	require.Equal(t, "Skyline Modern Loft", row.Title)
	require.Empty(t, store.Photos())
	require.NotContains(t, store.Calls(), memory.OpInsertPhotos)
}

func TestSubmitEditDeleteFailureLeavesOldPhotos(t *testing.T) {
	w, store := newWorkflow(t)
	existing := seedListing(t, store, model.Panorama{URL: "https://cdn.test/1.jpg", Label: "Living Room"})
	store.Fail(memory.OpDeletePhotos, errors.New("timeout"))
	form := FormFromProperty(existing)

	_, err := w.Submit(context.Background(), seller, &form, &existing)

	var partial *PartialWriteError
	require.True(t, errors.As(err, &partial))
	require.Equal(t, StepDeletePhotos, partial.Step)
	require.Len(t, store.Photos(), 1)
}

func TestSubmitRejectsConcurrentDuplicate(t *testing.T) {
	w, store := newWorkflow(t)
	form := validForm()

	require.True(t, w.begin(formKey(seller, nil)))
	require.Equal(t, StateSubmitting, w.State(seller, nil))

	_, err := w.Submit(context.Background(), seller, &form, nil)
	require.ErrorIs(t, err, ErrSubmissionInProgress)
	require.Empty(t, store.Calls())

	w.end(formKey(seller, nil))
	_, err = w.Submit(context.Background(), seller, &form, nil)
	require.NoError(t, err)
}

func TestSubmitRejectsBadFiles(t *testing.T) {
	w, store := newWorkflow(t)
	form := validForm()
	form.Panoramas[0].File.Name = "living.gif"

	_, err := w.Submit(context.Background(), seller, &form, nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "panoramas[0]")
	require.Empty(t, store.Calls())
}

func TestDeleteRemovesPhotosThenRow(t *testing.T) {
	w, store := newWorkflow(t)
	existing := seedListing(t, store, model.Panorama{URL: "https://cdn.test/1.jpg", Label: "Living Room"})

	require.ErrorIs(t, w.Delete(context.Background(), "intruder", existing), ErrNotOwner)
	require.NoError(t, w.Delete(context.Background(), seller, existing))
	require.Equal(t, []string{memory.OpDeletePhotos, memory.OpDeleteProperty}, store.Calls())

	_, err := store.GetProperty(context.Background(), existing.ID)
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestPaths(t *testing.T) {
	require.Equal(t, "u/thumbnails/1718000000000.jpg", ThumbnailPath("u", fixedNow, "jpg"))
	require.Equal(t, "u/p/1-living-room.jpg", PanoramaPath("u", "p", 0, " Living   Room ", "IMG.JPG"))
	require.Equal(t, "u/p/4-deck.jpg", PanoramaPath("u", "p", 3, "Deck", "noext"))
}

func TestListHelpers(t *testing.T) {
	list := []model.Property{{ID: "a"}, {ID: "b"}}
	list = Prepend(list, model.Property{ID: "c"})
	require.Equal(t, "c", list[0].ID)

	replaced := ReplaceByID(list, model.Property{ID: "a", Title: "new"})
	require.Equal(t, "new", replaced[1].Title)
	require.Equal(t, "", list[1].Title)

	require.Len(t, RemoveByID(replaced, "b"), 2)
}
