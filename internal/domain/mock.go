package domain

// Mock complex identifiers. Details and articles are keyed by MockComplexA.
const (
	MockComplexA = "123456"
	MockComplexB = "789012"
)

// mockOffset is the marker displacement from the center, in degrees.
const mockOffset = 0.001

// MockRealEstateData builds the placeholder payload served when the backend is unreachable.
// Only coordinates depend on the request.
func MockRealEstateData(req CrawlRequest) RealEstateData {
	lat, lon := req.CenterLat, req.CenterLon
	return RealEstateData{
		AreaInfo: AreaInfo{
			CenterLat: lat,
			CenterLon: lon,
			Bounds:    req.Bounds(),
		},
		Complexes: []Record{
			{
				"markerId":      MockComplexA,
				"markerType":    "COMPLEX",
				"lat":           lat + mockOffset,
				"lon":           lon + mockOffset,
				"complexName":   "테스트 아파트",
				"tradePriceMin": 50000,
				"tradePriceMax": 100000,
				"rentPriceMin":  3000,
				"rentPriceMax":  5000,
			},
			{
				"markerId":      MockComplexB,
				"markerType":    "COMPLEX",
				"lat":           lat - mockOffset,
				"lon":           lon - mockOffset,
				"complexName":   "샘플 단지",
				"tradePriceMin": 40000,
				"tradePriceMax": 80000,
				"rentPriceMin":  2500,
				"rentPriceMax":  4000,
			},
		},
		ComplexDetails: map[string]Record{
			MockComplexA: {
				"complexName":         "테스트 아파트",
				"totalHouseholdCount": 500,
				"useApproveYmd":       "2020-01-01",
			},
		},
		Articles: map[string][]Record{
			MockComplexA: {
				{
					"articleNo":          "001",
					"realEstateTypeName": "아파트",
					"tradeTypeName":      "매매",
					"dealOrWarrantPrc":   "8억5천만원",
					"areaName":           "84㎡",
					"direction":          "남향",
					"floorInfo":          "15/20층",
				},
			},
		},
		DevelopmentPlans: DevelopmentPlans{
			Road: []Record{
				{
					"planName":     "테스트 도로 개발",
					"planType":     "도로",
					"expectedDate": "2025년 12월",
				},
			},
			Rail: []Record{},
			Jigu: []Record{},
		},
	}
}
