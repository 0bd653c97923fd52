package dto

type ClientResponse struct {
	ClientID    int64   `json:"client_id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	OpeningTime string  `json:"opening_time,omitempty"`
	ClosingTime string  `json:"closing_time,omitempty"`
}

type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}
