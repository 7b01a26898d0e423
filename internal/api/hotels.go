package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type hotelListQuery struct {
	CityCode    string   `form:"cityCode" binding:"required,iata"`
	Radius      int      `form:"radius" binding:"omitempty,min=1,max=300"`
	RadiusUnit  string   `form:"radiusUnit" binding:"omitempty,oneof=KM MILE"`
	Ratings     []int    `form:"ratings" collection_format:"csv" binding:"omitempty,max=4,dive,min=1,max=5"`
	Amenities   []string `form:"amenities" collection_format:"csv" binding:"omitempty,max=10"`
	HotelSource string   `form:"hotelSource" binding:"omitempty,oneof=BEDBANK DIRECTCHAIN ALL"`
	Limit       int      `form:"limit,default=20" binding:"min=1,max=100"`
}

type hotelOffersQuery struct {
	HotelIDs     []string `form:"hotelIds" collection_format:"csv" binding:"required,min=1,max=20,dive,len=8,alphanum"`
	Adults       int      `form:"adults,default=1" binding:"min=1,max=9"`
	CheckInDate  string   `form:"checkInDate" binding:"omitempty,datetime=2006-01-02"`
	CheckOutDate string   `form:"checkOutDate" binding:"omitempty,datetime=2006-01-02,notbefore=CheckInDate"`
	RoomQuantity int      `form:"roomQuantity,default=1" binding:"min=1,max=9"`
	Currency     string   `form:"currency" binding:"omitempty,len=3,uppercase"`
	BestRateOnly *bool    `form:"bestRateOnly"`
}

// ListHotels lists hotels in a city.
func (r *Router) ListHotels(c *gin.Context) {
	var q hotelListQuery
	if verr := validation.BindQuery(c, &q); verr != nil {
		r.invalid(c, verr)
		return
	}

	hotels, err := r.client.ListHotelsByCity(c.Request.Context(), middleware.GetRequestID(c), travelclient.HotelListParams{
		CityCode:    q.CityCode,
		Radius:      q.Radius,
		RadiusUnit:  q.RadiusUnit,
		Ratings:     q.Ratings,
		Amenities:   q.Amenities,
		HotelSource: q.HotelSource,
	})
	if err != nil {
		r.fail(c, err)
		return
	}

	total := len(hotels)
	if len(hotels) > q.Limit {
		hotels = hotels[:q.Limit]
	}
	if hotels == nil {
		hotels = []travelclient.Hotel{}
	}
	r.ok(c, gin.H{
		"data": hotels,
		"meta": gin.H{"count": len(hotels), "total": total},
	})
}

// SearchHotelOffers returns room offers for specific hotels.
func (r *Router) SearchHotelOffers(c *gin.Context) {
	var q hotelOffersQuery
	if verr := validation.BindQuery(c, &q); verr != nil {
		r.invalid(c, verr)
		return
	}

	offers, err := r.client.SearchHotelOffers(c.Request.Context(), middleware.GetRequestID(c), travelclient.HotelOfferParams{
		HotelIDs:     q.HotelIDs,
		Adults:       q.Adults,
		CheckInDate:  q.CheckInDate,
		CheckOutDate: q.CheckOutDate,
		RoomQuantity: q.RoomQuantity,
		Currency:     q.Currency,
		BestRateOnly: q.BestRateOnly,
	})
	if err != nil {
		r.fail(c, err)
		return
	}

	if offers == nil {
		offers = []json.RawMessage{}
	}
	r.ok(c, gin.H{
		"data": offers,
		"meta": gin.H{"count": len(offers)},
	})
}
