// Package memory is an in-process stand-in for the hosted backend. It keeps
// an ordered log of every call and can be told to fail specific operations,
// which is how the workflows are tested against partial failures.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/model"
)

// Operation names used in the call log and in Fail.
const (
	OpListProperties   = "ListProperties"
	OpListBySeller     = "ListPropertiesBySeller"
	OpGetProperty      = "GetProperty"
	OpInsertProperty   = "InsertProperty"
	OpUpdateProperty   = "UpdateProperty"
	OpDeleteProperty   = "DeleteProperty"
	OpListPhotos       = "ListPhotos"
	OpDeletePhotos     = "DeletePhotos"
	OpInsertPhotos     = "InsertPhotos"
	OpGetProfile       = "GetProfile"
	OpInsertProfile    = "InsertProfile"
	OpUpdateRole       = "UpdateRole"
	OpListSaved        = "ListSavedIDs"
	OpInsertSaved      = "InsertSaved"
	OpDeleteSaved      = "DeleteSaved"
	OpGetAccount       = "GetAccount"
	OpGetAccountByMail = "GetAccountByEmail"
	OpInsertAccount    = "InsertAccount"
	OpUpload           = "Upload"
)

// Store implements backend.Tables and backend.Blobs.
type Store struct {
	mu sync.Mutex

	properties []model.PropertyRow
	photos     []model.PhotoRow
	profiles   map[string]model.ProfileRow
	saved      []model.SavedPropertyRow
	accounts   map[string]model.AccountRow
	objects    map[string][]byte
	nextPhoto  uint
	clock      func() time.Time

	calls []string
	fail  map[string]error
}

var (
	_ backend.Tables = (*Store)(nil)
	_ backend.Blobs  = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		profiles: make(map[string]model.ProfileRow),
		accounts: make(map[string]model.AccountRow),
		objects:  make(map[string][]byte),
		fail:     make(map[string]error),
		clock:    time.Now,
	}
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// SetClock replaces the source of created_at and updated_at stamps.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// Calls returns the operations performed so far, in order. Uploads are
// recorded as "Upload bucket/path".
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls clears the call log.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Object returns an uploaded blob.
func (s *Store) Object(bucket, path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+path]
	return data, ok
}

// Photos returns a copy of every stored photo row.
func (s *Store) Photos() []model.PhotoRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PhotoRow(nil), s.photos...)
}

// call records op and returns its injected failure. Callers hold s.mu.
func (s *Store) call(op string) error {
	s.calls = append(s.calls, op)
	return s.fail[op]
}

/* properties */

func (s *Store) ListProperties(ctx context.Context) ([]model.PropertyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpListProperties); err != nil {
		return nil, err
	}
	return s.newestFirst(func(model.PropertyRow) bool { return true }), nil
}

func (s *Store) ListPropertiesBySeller(ctx context.Context, sellerID string) ([]model.PropertyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpListBySeller); err != nil {
		return nil, err
	}
	return s.newestFirst(func(row model.PropertyRow) bool {
		return row.SellerID != nil && *row.SellerID == sellerID
	}), nil
}

func (s *Store) newestFirst(keep func(model.PropertyRow) bool) []model.PropertyRow {
	var out []model.PropertyRow
	for i := len(s.properties) - 1; i >= 0; i-- {
		if keep(s.properties[i]) {
			out = append(out, s.properties[i])
		}
	}
	return out
}

func (s *Store) GetProperty(ctx context.Context, id string) (*model.PropertyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpGetProperty); err != nil {
		return nil, err
	}
	for _, row := range s.properties {
		if row.ID == id {
			found := row
			return &found, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *Store) InsertProperty(ctx context.Context, row *model.PropertyRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpInsertProperty); err != nil {
		return err
	}
	row.Prepare()
	for _, existing := range s.properties {
		if existing.ID == row.ID {
			return backend.ErrDuplicate
		}
	}
	now := s.clock()
	row.CreatedAt, row.UpdatedAt = now, now
	s.properties = append(s.properties, *row)
	return nil
}

func (s *Store) UpdateProperty(ctx context.Context, row *model.PropertyRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpUpdateProperty); err != nil {
		return err
	}
	for i, existing := range s.properties {
		if existing.ID == row.ID {
			row.CreatedAt = existing.CreatedAt
			row.UpdatedAt = s.clock()
			if row.Slug == "" {
				row.Slug = existing.Slug
			}
			s.properties[i] = *row
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpDeleteProperty); err != nil {
		return err
	}
	for i, existing := range s.properties {
		if existing.ID == id {
			s.properties = append(s.properties[:i], s.properties[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

/* property_photos */

func (s *Store) ListPhotos(ctx context.Context, propertyIDs []string) ([]model.PhotoRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpListPhotos); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(propertyIDs))
	for _, id := range propertyIDs {
		wanted[id] = true
	}
	var out []model.PhotoRow
	for _, photo := range s.photos {
		if wanted[photo.PropertyID] {
			out = append(out, photo)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (s *Store) DeletePhotos(ctx context.Context, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpDeletePhotos); err != nil {
		return err
	}
	kept := s.photos[:0]
	for _, photo := range s.photos {
		if photo.PropertyID != propertyID {
			kept = append(kept, photo)
		}
	}
	s.photos = kept
	return nil
}

func (s *Store) InsertPhotos(ctx context.Context, rows []model.PhotoRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpInsertPhotos); err != nil {
		return err
	}
	for _, row := range rows {
		s.nextPhoto++
		row.ID = s.nextPhoto
		row.CreatedAt = s.clock()
		s.photos = append(s.photos, row)
	}
	return nil
}

/* profiles */

func (s *Store) GetProfile(ctx context.Context, userID string) (*model.ProfileRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpGetProfile); err != nil {
		return nil, err
	}
	row, ok := s.profiles[userID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &row, nil
}

func (s *Store) InsertProfile(ctx context.Context, row *model.ProfileRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpInsertProfile); err != nil {
		return err
	}
	if _, ok := s.profiles[row.ID]; ok {
		return backend.ErrDuplicate
	}
	if row.Role == "" {
		row.Role = string(model.RoleBuyer)
	}
	now := s.clock()
	row.CreatedAt, row.UpdatedAt = now, now
	s.profiles[row.ID] = *row
	return nil
}

func (s *Store) UpdateRole(ctx context.Context, userID string, role model.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpUpdateRole); err != nil {
		return err
	}
	row, ok := s.profiles[userID]
	if !ok {
		return backend.ErrNotFound
	}
	row.Role = string(role)
	row.UpdatedAt = s.clock()
	s.profiles[userID] = row
	return nil
}

/* saved_properties */

func (s *Store) ListSavedIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpListSaved); err != nil {
		return nil, err
	}
	var ids []string
	for _, row := range s.saved {
		if row.UserID == userID {
			ids = append(ids, row.PropertyID)
		}
	}
	return ids, nil
}

func (s *Store) InsertSaved(ctx context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpInsertSaved); err != nil {
		return err
	}
	for _, row := range s.saved {
		if row.UserID == userID && row.PropertyID == propertyID {
			return backend.ErrDuplicate
		}
	}
	s.saved = append(s.saved, model.SavedPropertyRow{UserID: userID, PropertyID: propertyID, CreatedAt: s.clock()})
	return nil
}

func (s *Store) DeleteSaved(ctx context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpDeleteSaved); err != nil {
		return err
	}
	kept := s.saved[:0]
	for _, row := range s.saved {
		if !(row.UserID == userID && row.PropertyID == propertyID) {
			kept = append(kept, row)
		}
	}
	s.saved = kept
	return nil
}

/* accounts */

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.AccountRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpGetAccountByMail); err != nil {
		return nil, err
	}
	for _, row := range s.accounts {
		if strings.EqualFold(row.Email, email) {
			found := row
			return &found, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *Store) GetAccount(ctx context.Context, id string) (*model.AccountRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpGetAccount); err != nil {
		return nil, err
	}
	row, ok := s.accounts[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return &row, nil
}

func (s *Store) InsertAccount(ctx context.Context, row *model.AccountRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpInsertAccount); err != nil {
		return err
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, row.Email) {
			return backend.ErrDuplicate
		}
	}
	row.CreatedAt = s.clock()
	s.accounts[row.ID] = *row
	return nil
}

/* blobs */

func (s *Store) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpUpload + " " + bucket + "/" + path); err != nil {
		return err
	}
	if err := s.fail[OpUpload]; err != nil {
		return err
	}
	s.objects[bucket+"/"+path] = bytes.Clone(data)
	return nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return "https://storage.test/" + bucket + "/" + path
}
