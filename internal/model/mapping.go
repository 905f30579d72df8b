package model

// PropertyFromRow builds the domain entity from a properties row and its
// photo rows. Photos are expected in sort order.
func PropertyFromRow(row PropertyRow, photos []PhotoRow) Property {
	p := Property{
		ID:            row.ID,
		SellerID:      row.SellerID,
		Slug:          row.Slug,
		Title:         row.Title,
		Address:       row.Address,
		City:          row.City,
		State:         row.State,
		Zip:           row.Zip,
		Price:         row.Price,
		ListingType:   ListingType(row.ListingType),
		PropertyType:  PropertyType(row.PropertyType),
		Bedrooms:      row.Bedrooms,
		Bathrooms:     row.Bathrooms,
		Sqft:          row.Sqft,
		YearBuilt:     row.YearBuilt,
		IsNew:         row.IsNew,
		IsFeatured:    row.IsFeatured,
		Description:   row.Description,
		Features:      append([]string{}, row.Features...),
		Panoramas:     make([]Panorama, 0, len(photos)),
		MatterportURL: row.MatterportURL,
		Agent: Agent{
			Name:  row.AgentName,
			Phone: row.AgentPhone,
			Email: row.AgentEmail,
			Photo: row.AgentPhoto,
		},
	}
	if row.ThumbnailURL != nil {
		p.ThumbnailURL = *row.ThumbnailURL
	}
	for _, photo := range photos {
		p.Panoramas = append(p.Panoramas, Panorama{URL: photo.URL, Label: photo.Label})
	}
	return p
}

// PropertyToRow is the inverse of PropertyFromRow for the properties table.
// Panoramas live in their own table, see PhotoRowsFor.
func PropertyToRow(p Property) PropertyRow {
	row := PropertyRow{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Slug:          p.Slug,
		Title:         p.Title,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		Zip:           p.Zip,
		Price:         p.Price,
		ListingType:   string(p.ListingType),
		PropertyType:  string(p.PropertyType),
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		Sqft:          p.Sqft,
		YearBuilt:     p.YearBuilt,
		IsNew:         p.IsNew,
		IsFeatured:    p.IsFeatured,
		Description:   p.Description,
		Features:      append([]string{}, p.Features...),
		MatterportURL: p.MatterportURL,
		AgentName:     p.Agent.Name,
		AgentPhone:    p.Agent.Phone,
		AgentEmail:    p.Agent.Email,
		AgentPhoto:    p.Agent.Photo,
	}
	if p.ThumbnailURL != "" {
		thumb := p.ThumbnailURL
		row.ThumbnailURL = &thumb
	}
	return row
}

// PhotoRowsFor numbers panoramas from 1 in submission order.
func PhotoRowsFor(propertyID string, panoramas []Panorama) []PhotoRow {
	rows := make([]PhotoRow, 0, len(panoramas))
	for i, pano := range panoramas {
		rows = append(rows, PhotoRow{
			PropertyID: propertyID,
			Label:      pano.Label,
			URL:        pano.URL,
			SortOrder:  i + 1,
		})
	}
	return rows
}

// GroupPhotos indexes photo rows by property id, keeping their order.
func GroupPhotos(photos []PhotoRow) map[string][]PhotoRow {
	grouped := make(map[string][]PhotoRow)
	for _, photo := range photos {
		grouped[photo.PropertyID] = append(grouped[photo.PropertyID], photo)
	}
	return grouped
}

func ProfileFromRow(row ProfileRow) Profile {
	role, ok := ParseRole(row.Role)
	if !ok {
		role = RoleBuyer
	}
	return Profile{
		ID:        row.ID,
		Email:     row.Email,
		FullName:  row.FullName,
		AvatarURL: row.AvatarURL,
		Role:      role,
	}
}

func ProfileToRow(p Profile) ProfileRow {
	return ProfileRow{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      string(p.Role),
	}
}
