package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/pkg/utils/image"
	"panoproperty_backend/pkg/utils/validation"
)

// Store is the part of the tables backend the workflow writes to.
type Store interface {
	backend.PropertyStore
	backend.PhotoStore
}

// State of a form as seen by the submit control.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
)

// Workflow runs listing submissions. Steps of one submission run strictly in
// sequence; different listings may be submitted concurrently.
type Workflow struct {
	store  Store
	blobs  backend.Blobs
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewWorkflow(store Store, blobs backend.Blobs, logger *zap.Logger) *Workflow {
	return &Workflow{
		store:    store,
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

func formKey(userID string, existing *model.Property) string {
	if existing != nil {
		return "edit:" + existing.ID
	}
	return "create:" + userID
}

// State reports whether the form of userID for existing (nil for create) is
// being submitted.
func (w *Workflow) State(userID string, existing *model.Property) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[formKey(userID, existing)]; ok {
		return StateSubmitting
	}
	return StateEditing
}

func (w *Workflow) begin(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[key]; ok {
		return false
	}
	w.inFlight[key] = struct{}{}
	return true
}

func (w *Workflow) end(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, key)
}

// Submit validates form and persists it for userID. With existing set the
// listing is edited in place, otherwise created. On success the assembled
// listing is returned and the form is reset.
func (w *Workflow) Submit(ctx context.Context, userID string, form *Form, existing *model.Property) (*model.Property, error) {
	if existing != nil && !existing.OwnedBy(userID) {
		return nil, ErrNotOwner
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := validateFiles(form); err != nil {
		return nil, err
	}

	key := formKey(userID, existing)
	if !w.begin(key) {
		return nil, ErrSubmissionInProgress
	}
	defer w.end(key)

	log := w.logger.With(zap.String("user_id", userID), zap.Bool("edit", existing != nil))

	property, err := w.submit(ctx, userID, form, existing)
	if err != nil {
		var partial *PartialWriteError
		if errors.As(err, &partial) {
			log.Warn("listing saved without its photos",
				zap.String("property_id", partial.PropertyID),
				zap.String("step", string(partial.Step)),
				zap.Error(partial.Err))
		} else {
			log.Error("listing submission failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("listing saved",
		zap.String("property_id", property.ID),
		zap.Int("panoramas", len(property.Panoramas)))
	form.Reset()
	return property, nil
}

func validateFiles(form *Form) error {
	verr := &ValidationError{Fields: map[string]string{}}
	if form.Thumbnail != nil {
		if err := validation.ValidateImage(form.Thumbnail.Name, len(form.Thumbnail.Body)); err != nil {
			verr.Fields["thumbnail"] = err.Error()
		}
	}
	for i, p := range form.ValidPanoramas() {
		if p.File == nil {
			continue
		}
		if err := validation.ValidateImage(p.File.Name, len(p.File.Body)); err != nil {
			verr.Fields[fmt.Sprintf("panoramas[%d]", i)] = err.Error()
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (w *Workflow) submit(ctx context.Context, userID string, form *Form, existing *model.Property) (*model.Property, error) {
	// 1. thumbnail
	thumbnailURL := strings.TrimSpace(form.ThumbnailURL)
	if form.Thumbnail != nil {
		url, err := w.uploadThumbnail(ctx, userID, form.Thumbnail)
		if err != nil {
			return nil, &StepError{Step: StepThumbnail, Err: err}
		}
		thumbnailURL = url
	}

	// 2. property row
	p := form.property()
	p.SellerID = &userID
	p.ThumbnailURL = thumbnailURL
	row := model.PropertyToRow(p)

	if existing != nil {
		row.ID = existing.ID
		row.Slug = existing.Slug
		if err := w.store.UpdateProperty(ctx, &row); err != nil {
			return nil, &StepError{Step: StepSaveProperty, Err: err}
		}
	} else {
		if err := w.store.InsertProperty(ctx, &row); err != nil {
			return nil, &StepError{Step: StepSaveProperty, Err: err}
		}
	}

	// 3. panoramas
	var resolved []model.Panorama
	for i, pano := range form.ValidPanoramas() {
		label := strings.TrimSpace(pano.Label)
		if pano.File == nil {
			resolved = append(resolved, model.Panorama{URL: pano.URL, Label: label})
			continue
		}
		path := PanoramaPath(userID, row.ID, i, label, pano.File.Name)
		body := bytes.NewReader(pano.File.Body)
		if err := w.blobs.Upload(ctx, backend.BucketPanoramas, path, body, pano.File.ContentType); err != nil {
			return nil, &PartialWriteError{PropertyID: row.ID, Step: StepUploadPanorama, Err: err}
		}
		resolved = append(resolved, model.Panorama{URL: w.blobs.PublicURL(backend.BucketPanoramas, path), Label: label})
	}

	// 4. at least one photo
	if len(resolved) == 0 {
		return nil, &PartialWriteError{PropertyID: row.ID, Step: StepRequirePhotos, Err: ErrPhotoRequired}
	}

	// 5. full replace when editing
	if existing != nil {
		if err := w.store.DeletePhotos(ctx, row.ID); err != nil {
			return nil, &PartialWriteError{PropertyID: row.ID, Step: StepDeletePhotos, Err: err}
		}
	}

	// 6. photo rows in submission order
	photos := model.PhotoRowsFor(row.ID, resolved)
	if err := w.store.InsertPhotos(ctx, photos); err != nil {
		return nil, &PartialWriteError{PropertyID: row.ID, Step: StepInsertPhotos, Err: err}
	}

	// 7. assembled listing
	property := model.PropertyFromRow(row, photos)
	if property.ThumbnailURL == "" {
		property.ThumbnailURL = thumbnailURL
	}
	return &property, nil
}

func (w *Workflow) uploadThumbnail(ctx context.Context, userID string, file *File) (string, error) {
	processed, err := image.Process(file.Body)
	if err != nil {
		return "", err
	}
	path := ThumbnailPath(userID, w.now(), processed.Ext)
	if err := w.blobs.Upload(ctx, backend.BucketThumbnails, path, processed.Body, processed.ContentType); err != nil {
		return "", err
	}
	return w.blobs.PublicURL(backend.BucketThumbnails, path), nil
}

// Delete removes a listing owned by userID, photo rows first.
func (w *Workflow) Delete(ctx context.Context, userID string, property model.Property) error {
	if !property.OwnedBy(userID) {
		return ErrNotOwner
	}
	if err := w.store.DeletePhotos(ctx, property.ID); err != nil {
		return &StepError{Step: StepDeletePhotos, Err: err}
	}
	if err := w.store.DeleteProperty(ctx, property.ID); err != nil {
		return &PartialWriteError{PropertyID: property.ID, Step: StepDeleteProperty, Err: err}
	}
	w.logger.Info("listing deleted", zap.String("user_id", userID), zap.String("property_id", property.ID))
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// ThumbnailPath is "<user>/thumbnails/<unix ms>.<ext>".
func ThumbnailPath(userID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/thumbnails/%d.%s", userID, at.UnixMilli(), ext)
}

// PanoramaPath is "<user>/<property>/<index+1>-<label>.<ext>" with the label
// lower-cased and whitespace runs turned into hyphens.
func PanoramaPath(userID, propertyID string, index int, label, fileName string) string {
	safeLabel := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
	return fmt.Sprintf("%s/%s/%d-%s.%s", userID, propertyID, index+1, safeLabel, validation.Ext(fileName, "jpg"))
}
