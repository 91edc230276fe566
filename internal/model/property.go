package model

// PropertyFeatures is the feature record handed to a price oracle.
type PropertyFeatures struct {
	City          string   `json:"city,omitempty" yaml:"city"`
	Neighbourhood string   `json:"neighbourhood,omitempty" yaml:"neighbourhood"`
	Latitude      float64  `json:"latitude,omitempty" yaml:"latitude"`
	Longitude     float64  `json:"longitude,omitempty" yaml:"longitude"`
	RoomType      string   `json:"room_type,omitempty" yaml:"room_type"`
	Accommodates  int      `json:"accommodates,omitempty" yaml:"accommodates"`
	Bedrooms      int      `json:"bedrooms,omitempty" yaml:"bedrooms"`
	Bathrooms     float64  `json:"bathrooms,omitempty" yaml:"bathrooms"`
	Beds          int      `json:"beds,omitempty" yaml:"beds"`
	MinimumNights int      `json:"minimum_nights,omitempty" yaml:"minimum_nights"`
	Amenities     []string `json:"amenities,omitempty" yaml:"amenities"`
}

// WatchedProperty is a watchlist entry re-evaluated on a schedule.
type WatchedProperty struct {
	Name string `yaml:"name"`
	// NightlyPrice skips the oracle when positive.
	NightlyPrice float64          `yaml:"nightly_price"`
	Features     PropertyFeatures `yaml:"features"`
	Costs        InvestmentCosts  `yaml:"costs"`
}
