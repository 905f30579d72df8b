package listing

import "panoproperty_backend/internal/model"

// Prepend puts a newly created listing at the head of list.
func Prepend(list []model.Property, p model.Property) []model.Property {
	out := make([]model.Property, 0, len(list)+1)
	out = append(out, p)
	return append(out, list...)
}

// ReplaceByID swaps the listing with p's id for p, keeping its position. The
// list is returned unchanged when no listing matches.
func ReplaceByID(list []model.Property, p model.Property) []model.Property {
	out := append([]model.Property(nil), list...)
	for i := range out {
		if out[i].ID == p.ID {
			out[i] = p
			break
		}
	}
	return out
}

func RemoveByID(list []model.Property, id string) []model.Property {
	out := make([]model.Property, 0, len(list))
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
