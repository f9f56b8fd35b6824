package products

// DemoCatalog returns a small fixed catalog mirroring the seeded database
// rows, for running the service without a database.
func DemoCatalog() []Product {
	return []Product{
		{
			ID: "prod-hex-m12-50", SKU: "HEX-M12-50", Name: "Hex Bolt M12x50", CategorySlug: "hex-bolts",
			Description: "Grade 8.8 hex head bolt, zinc plated", Price: 4.50, UnitWeightKg: 0.058,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8.8", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700", "ISO 898-1"},
			Featured:       true, InStock: true, Active: true,
		},
		{
			ID: "prod-hex-m16-60", SKU: "HEX-M16-60", Name: "Hex Bolt M16x60", CategorySlug: "hex-bolts",
			Description: "Grade 8.8 hex head bolt, zinc plated", Price: 7.80, UnitWeightKg: 0.126,
			Specifications: map[string]string{SpecSize: "M16", SpecGrade: "8.8", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700", "ISO 898-1"},
			Featured:       true, InStock: true, Active: true,
		},
		{
			ID: "prod-hex-m12-50-hdg", SKU: "HEX-M12-50-HDG", Name: "Hex Bolt M12x50 Galvanized", CategorySlug: "galvanized-fasteners",
			Description: "Grade 8.8 hex head bolt, hot dip galvanized for coastal use", Price: 6.20, UnitWeightKg: 0.061,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8.8", SpecMaterial: "carbon steel", SpecCoating: "hot dip galvanized"},
			Standards:      []string{"SANS 1700", "ISO 1461"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-ss-m12-50", SKU: "SS-HEX-M12-50", Name: "Stainless Hex Bolt M12x50", CategorySlug: "stainless-fasteners",
			Description: "A4-80 stainless hex bolt for marine environments", Price: 12.40, UnitWeightKg: 0.058,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "A4-80", SpecMaterial: "stainless steel"},
			Standards:      []string{"ISO 3506-1"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-nut-m12", SKU: "NUT-M12", Name: "Hex Nut M12", CategorySlug: "nuts",
			Description: "Grade 8 hex nut, zinc plated", Price: 1.20, UnitWeightKg: 0.015,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-nut-m16", SKU: "NUT-M16", Name: "Hex Nut M16", CategorySlug: "nuts",
			Description: "Grade 8 hex nut, zinc plated", Price: 2.10, UnitWeightKg: 0.031,
			Specifications: map[string]string{SpecSize: "M16", SpecGrade: "8", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-washer-m12", SKU: "WAS-M12", Name: "Flat Washer M12", CategorySlug: "washers",
			Description: "Mild steel flat washer, zinc plated", Price: 0.45, UnitWeightKg: 0.006,
			Specifications: map[string]string{SpecSize: "M12", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-anchor-m12", SKU: "ANC-M12-100", Name: "Sleeve Anchor M12x100", CategorySlug: "anchors",
			Description: "Through-fix sleeve anchor for concrete", Price: 9.60, UnitWeightKg: 0.142,
			Specifications: map[string]string{SpecSize: "M12", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700"},
			InStock:        true, Active: true,
		},
	}
}
