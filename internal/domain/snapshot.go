package domain

import (
	"encoding/json"
	"time"
)

const (
	SourceAPI     = "api"
	SourceSweeper = "sweeper"
)

// Snapshot is an archived successful crawl body plus its request and summary counts.
type Snapshot struct {
	ID             string
	CenterLat      float64
	CenterLon      float64
	Radius         float64
	RealEstateType string
	PriceType      string
	Source         string
	Summary        CrawlSummary
	Body           []byte
	CreatedAt      time.Time
}

type CrawlSummary struct {
	Complexes      int `json:"complexes"`
	ComplexDetails int `json:"complex_details"`
	Articles       int `json:"articles"`
	RoadPlans      int `json:"road_plans"`
	RailPlans      int `json:"rail_plans"`
	JiguPlans      int `json:"jigu_plans"`
}

// Summarize counts the records of a CrawlResponse body. Unknown shapes yield zero counts.
func Summarize(body []byte) CrawlSummary {
	var resp struct {
		Data *struct {
			Complexes        []json.RawMessage            `json:"complexes"`
			ComplexDetails   map[string]json.RawMessage   `json:"complex_details"`
			Articles         map[string][]json.RawMessage `json:"articles"`
			DevelopmentPlans map[string][]json.RawMessage `json:"development_plans"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Data == nil {
		return CrawlSummary{}
	}
	d := resp.Data
	s := CrawlSummary{
		Complexes:      len(d.Complexes),
		ComplexDetails: len(d.ComplexDetails),
		RoadPlans:      len(d.DevelopmentPlans["road"]),
		RailPlans:      len(d.DevelopmentPlans["rail"]),
		JiguPlans:      len(d.DevelopmentPlans["jigu"]),
	}
	for _, a := range d.Articles {
		s.Articles += len(a)
	}
	return s
}

type SnapshotView struct {
	ID             string       `json:"id"`
	CenterLat      float64      `json:"center_lat"`
	CenterLon      float64      `json:"center_lon"`
	Radius         float64      `json:"radius"`
	RealEstateType string       `json:"real_estate_type,omitempty"`
	PriceType      string       `json:"price_type,omitempty"`
	Source         string       `json:"source"`
	Summary        CrawlSummary `json:"summary"`
	CreatedAt      time.Time    `json:"created_at"`
}

type SnapshotsPage struct {
	Items []SnapshotView `json:"items"`
}
