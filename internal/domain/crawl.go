package domain

import (
	"fmt"
	"math"
)

const DefaultRadius = 0.003

// MaxRadius caps the half-width of a crawl box in degrees (~110km).
const MaxRadius = 1.0

// CrawlRequest is forwarded to the backend as-is; absent optional fields stay absent.
type CrawlRequest struct {
	CenterLat      float64  `json:"center_lat"`
	CenterLon      float64  `json:"center_lon"`
	Radius         *float64 `json:"radius,omitempty"`
	RealEstateType string   `json:"real_estate_type,omitempty"`
	PriceType      string   `json:"price_type,omitempty"`
}

// EffectiveRadius returns the radius the backend will use. Zero counts as absent.
func (r CrawlRequest) EffectiveRadius() float64 {
	if r.Radius == nil || *r.Radius == 0 {
		return DefaultRadius
	}
	return *r.Radius
}

func (r CrawlRequest) Bounds() BoundingBox {
	return NewBoundingBox(r.CenterLat, r.CenterLon, r.EffectiveRadius())
}

func (r CrawlRequest) Validate() error {
	if math.IsNaN(r.CenterLat) || r.CenterLat < -90 || r.CenterLat > 90 {
		return &ValidationError{Field: "center_lat", Reason: "must be between -90 and 90"}
	}
	if math.IsNaN(r.CenterLon) || r.CenterLon < -180 || r.CenterLon > 180 {
		return &ValidationError{Field: "center_lon", Reason: "must be between -180 and 180"}
	}
	if r.Radius != nil {
		if v := *r.Radius; math.IsNaN(v) || v < 0 || v > MaxRadius {
			return &ValidationError{Field: "radius", Reason: fmt.Sprintf("must be between 0 and %g", MaxRadius)}
		}
	}
	return nil
}

type BoundingBox struct {
	LeftLon   float64 `json:"left_lon"`
	RightLon  float64 `json:"right_lon"`
	TopLat    float64 `json:"top_lat"`
	BottomLat float64 `json:"bottom_lat"`
}

func NewBoundingBox(lat, lon, radius float64) BoundingBox {
	return BoundingBox{
		LeftLon:   lon - radius,
		RightLon:  lon + radius,
		TopLat:    lat + radius,
		BottomLat: lat - radius,
	}
}

// Record is a loosely typed listing-site object (complex marker, detail, article, plan).
type Record = map[string]any

type AreaInfo struct {
	CenterLat float64     `json:"center_lat"`
	CenterLon float64     `json:"center_lon"`
	Bounds    BoundingBox `json:"bounds"`
}

type DevelopmentPlans struct {
	Road []Record `json:"road"`
	Rail []Record `json:"rail"`
	Jigu []Record `json:"jigu"`
}

type RealEstateData struct {
	AreaInfo         AreaInfo            `json:"area_info"`
	Complexes        []Record            `json:"complexes"`
	ComplexDetails   map[string]Record   `json:"complex_details"`
	Articles         map[string][]Record `json:"articles"`
	DevelopmentPlans DevelopmentPlans    `json:"development_plans"`
}

type CrawlResponse struct {
	Success bool            `json:"success"`
	Data    *RealEstateData `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func Failure(msg string) CrawlResponse { return CrawlResponse{Success: false, Error: msg} }
