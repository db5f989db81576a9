package registry

// builtinZones is the New York City zone table the bundled models were trained with.
var builtinZones = []ZoneInfo{
	{ID: 0, Name: "Times Square Area", Type: "Entertainment", Color: "#EF4444", Description: "Theatres, hotels and the densest tourist pickups in Midtown."},
	{ID: 1, Name: "Financial District", Type: "Business", Color: "#3B82F6", Description: "Wall Street offices with strong weekday commute peaks."},
	{ID: 2, Name: "Upper East Side", Type: "Residential", Color: "#10B981", Description: "Residential blocks along the museum mile."},
	{ID: 3, Name: "Chelsea/Meatpacking", Type: "Entertainment", Color: "#F59E0B", Description: "Galleries, the High Line and late-night venues."},
	{ID: 4, Name: "Williamsburg", Type: "Nightlife", Color: "#8B5CF6", Description: "Brooklyn waterfront with busy weekend nights."},
	{ID: 5, Name: "Astoria", Type: "Residential", Color: "#EC4899", Description: "Queens neighbourhood close to LaGuardia."},
	{ID: 6, Name: "Harlem", Type: "Residential", Color: "#14B8A6", Description: "Upper Manhattan residential and cultural district."},
	{ID: 7, Name: "JFK Airport", Type: "Transport", Color: "#F97316", Description: "John F. Kennedy International Airport terminals."},
	{ID: 8, Name: "LaGuardia Airport", Type: "Transport", Color: "#6366F1", Description: "LaGuardia Airport terminals in northern Queens."},
	{ID: 9, Name: "Brooklyn Heights", Type: "Residential", Color: "#84CC16", Description: "Brownstones and the promenade across from Lower Manhattan."},
	{ID: 10, Name: "SoHo", Type: "Shopping", Color: "#06B6D4", Description: "Cast-iron shopping streets south of Houston."},
	{ID: 11, Name: "Greenwich Village", Type: "Entertainment", Color: "#A855F7", Description: "Village bars, clubs and Washington Square Park."},
	{ID: 12, Name: "Midtown East", Type: "Business", Color: "#0EA5E9", Description: "Grand Central and the office towers around it."},
	{ID: 13, Name: "Upper West Side", Type: "Residential", Color: "#22C55E", Description: "Residential district between Central Park and the Hudson."},
	{ID: 14, Name: "Long Island City", Type: "Residential", Color: "#E11D48", Description: "High-rise Queens waterfront one stop from Midtown."},
}

// BuiltinZoneCentroids are the display centroids matching builtinZones, by id.
var BuiltinZoneCentroids = [][2]float64{
	{40.7580, -73.9855},
	{40.7075, -74.0113},
	{40.7736, -73.9566},
	{40.7420, -74.0048},
	{40.7081, -73.9571},
	{40.7644, -73.9235},
	{40.8116, -73.9465},
	{40.6413, -73.7781},
	{40.7769, -73.8740},
	{40.6953, -73.9965},
	{40.7233, -74.0030},
	{40.7336, -74.0027},
	{40.7549, -73.9840},
	{40.7870, -73.9754},
	{40.7447, -73.9485},
}
