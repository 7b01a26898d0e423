package api

import (
	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type locationQuery struct {
	Keyword     string `form:"keyword" binding:"required,max=64"`
	SubType     string `form:"subType" binding:"omitempty,oneof=AIRPORT CITY"`
	CountryCode string `form:"countryCode" binding:"omitempty,len=2,alpha"`
	Limit       int    `form:"limit,default=10" binding:"min=1,max=50"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

type locationPayload struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	DetailName  string                `json:"detailedName,omitempty"`
	IATACode    string                `json:"iataCode"`
	SubType     string                `json:"subType"`
	CityName    string                `json:"cityName,omitempty"`
	CountryCode string                `json:"countryCode,omitempty"`
	GeoCode     *travelclient.GeoCode `json:"geoCode,omitempty"`
}

func locationResponse(l travelclient.Location) locationPayload {
	out := locationPayload{
		ID:         l.ID,
		Name:       l.Name,
		DetailName: l.Detailed,
		IATACode:   l.IATACode,
		SubType:    l.SubType,
		GeoCode:    l.GeoCode,
	}
	if l.Address != nil {
		out.CityName = l.Address.CityName
		out.CountryCode = l.Address.CountryCode
	}
	return out
}

// SearchLocations resolves airports and cities by keyword.
func (r *Router) SearchLocations(c *gin.Context) {
	var q locationQuery
	if verr := validation.BindQuery(c, &q); verr != nil {
		r.invalid(c, verr)
		return
	}

	params := travelclient.LocationSearchParams{
		Keyword:     q.Keyword,
		CountryCode: q.CountryCode,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.SubType != "" {
		params.SubTypes = []string{q.SubType}
	}

	locations, _, err := r.client.SearchLocations(c.Request.Context(), middleware.GetRequestID(c), params)
	if err != nil {
		r.fail(c, err)
		return
	}

	data := make([]locationPayload, 0, len(locations))
	for _, l := range locations {
		data = append(data, locationResponse(l))
	}
	r.ok(c, gin.H{
		"data": data,
		"meta": gin.H{"count": len(data)},
	})
}
