package session

import "panoproperty_backend/internal/model"

// Capabilities are the actions offered to a viewer.
type Capabilities struct {
	Browse         bool `json:"browse"`
	SaveProperties bool `json:"saveProperties"`
	BecomeSeller   bool `json:"becomeSeller"`
	ListProperty   bool `json:"listProperty"`
	ManageListings bool `json:"manageListings"`
}

func CapabilitiesFor(signedIn bool, role model.Role) Capabilities {
	c := Capabilities{Browse: true}
	if !signedIn {
		return c
	}
	c.SaveProperties = true
	switch role {
	case model.RoleSeller:
		c.ListProperty = true
		c.ManageListings = true
	default:
		c.BecomeSeller = true
	}
	return c
}
