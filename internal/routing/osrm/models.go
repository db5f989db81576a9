package osrm

// routeResponse is the body of GET /route/v1/{profile}/{coordinates}.
type routeResponse struct {
	Code      string     `json:"code"`
	Message   string     `json:"message,omitempty"`
	Routes    []route    `json:"routes"`
	Waypoints []waypoint `json:"waypoints,omitempty"`
}

type route struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
	Geometry string  `json:"geometry"` // encoded polyline, precision 5
}

type waypoint struct {
	Name     string     `json:"name"`
	Location [2]float64 `json:"location"` // [lon, lat]
}

// Response codes documented by the OSRM HTTP API.
const (
	codeOK            = "Ok"
	codeNoRoute       = "NoRoute"
	codeNoSegment     = "NoSegment"
	codeInvalidQuery  = "InvalidQuery"
	codeInvalidValue  = "InvalidValue"
	codeTooBig        = "TooBig"
	codeInvalidInput  = "InvalidInput"
	codeInvalidURL    = "InvalidUrl"
	codeInvalidOption = "InvalidOptions"
)
