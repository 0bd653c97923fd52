package dto

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CorridorSuggestionsRequest struct {
	Anchors        []PointRequest `json:"anchors"`
	RadiusKm       float64        `json:"radius_km"`
	MaxSuggestions int            `json:"max_suggestions"`
}

type CorridorSuggestionResponse struct {
	Client         ClientResponse `json:"client"`
	DistanceMeters float64        `json:"distance_meters"`
	Score          int            `json:"score"`
}

type CorridorSuggestionsResponse struct {
	Suggestions []CorridorSuggestionResponse `json:"suggestions"`
}
