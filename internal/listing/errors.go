package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPanoramasInvalid     = errors.New("each 360 photo must have a label, and empty rows should be removed")
	ErrPhotoRequired        = errors.New("please upload at least one 360 photo")
	ErrTooManyPanoramas     = fmt.Errorf("a listing holds at most %d 360 photos", MaxPanoramas)
	ErrNotOwner             = errors.New("listing belongs to another seller")
	ErrSubmissionInProgress = errors.New("a submission for this listing is already in progress")
)

// Step names a write of the submission sequence.
type Step string

const (
	StepThumbnail      Step = "upload thumbnail"
	StepSaveProperty   Step = "save property"
	StepUploadPanorama Step = "upload panorama"
	StepRequirePhotos  Step = "resolve panoramas"
	StepDeletePhotos   Step = "delete photos"
	StepInsertPhotos   Step = "insert photos"
	StepDeleteProperty Step = "delete property"
)

// ValidationError blocks a submission before anything is written.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}

// StepError is a failed submission that wrote nothing. Its message is the
// backend's own.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

// PartialWriteError is a failure after the property row was written. The
// row is kept and may have no photos.
type PartialWriteError struct {
	PropertyID string
	Step       Step
	Err        error
}

func (e *PartialWriteError) Error() string { return e.Err.Error() }

func (e *PartialWriteError) Unwrap() error { return e.Err }
