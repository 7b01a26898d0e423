package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type travelerName struct {
	FirstName string `json:"firstName" binding:"required,max=56"`
	LastName  string `json:"lastName" binding:"required,max=57"`
}

type travelerPhone struct {
	DeviceType         string `json:"deviceType" binding:"omitempty,oneof=MOBILE LANDLINE FAX"`
	CountryCallingCode string `json:"countryCallingCode" binding:"required,numeric,max=3"`
	Number             string `json:"number" binding:"required,numeric,max=15"`
}

type travelerContact struct {
	EmailAddress string          `json:"emailAddress" binding:"omitempty,email"`
	Phones       []travelerPhone `json:"phones" binding:"omitempty,max=3,dive"`
}

type travelerInput struct {
	ID          string           `json:"id" binding:"required,max=10"`
	DateOfBirth string           `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Gender      string           `json:"gender" binding:"omitempty,oneof=MALE FEMALE"`
	Name        travelerName     `json:"name"`
	Contact     *travelerContact `json:"contact"`
}

type bookingBody struct {
	FlightOffers []json.RawMessage `json:"flightOffers" binding:"required,min=1,max=6,dive,jsonobject"`
	Travelers    []travelerInput   `json:"travelers" binding:"required,min=1,max=9,dive"`
	Remarks      json.RawMessage   `json:"remarks"`
	Contacts     json.RawMessage   `json:"contacts"`
}

type bookingURI struct {
	ID string `uri:"id" binding:"required,max=128"`
}

func (t travelerInput) toTraveler() travelclient.Traveler {
	out := travelclient.Traveler{
		ID:          t.ID,
		DateOfBirth: t.DateOfBirth,
		Gender:      t.Gender,
		Name: travelclient.TravelerName{
			FirstName: t.Name.FirstName,
			LastName:  t.Name.LastName,
		},
	}
	if t.Contact != nil {
		contact := &travelclient.TravelerContact{EmailAddress: t.Contact.EmailAddress}
		for _, p := range t.Contact.Phones {
			contact.Phones = append(contact.Phones, travelclient.Phone{
				DeviceType:         p.DeviceType,
				CountryCallingCode: p.CountryCallingCode,
				Number:             p.Number,
			})
		}
		out.Contact = contact
	}
	return out
}

// CreateBooking books priced offers for the travelers.
func (r *Router) CreateBooking(c *gin.Context) {
	var body bookingBody
	if verr := validation.BindJSON(c, &body); verr != nil {
		r.invalid(c, verr)
		return
	}

	travelers := make([]travelclient.Traveler, 0, len(body.Travelers))
	for _, t := range body.Travelers {
		travelers = append(travelers, t.toTraveler())
	}

	order, err := r.client.CreateFlightOrder(c.Request.Context(), middleware.GetRequestID(c), travelclient.FlightOrderRequest{
		FlightOffers: body.FlightOffers,
		Travelers:    travelers,
		Remarks:      body.Remarks,
		Contacts:     body.Contacts,
	})
	if err != nil {
		r.fail(c, err)
		return
	}
	r.ok(c, gin.H{"data": bookingResponse(order)})
}

// GetBooking retrieves an order by id.
func (r *Router) GetBooking(c *gin.Context) {
	var uri bookingURI
	if verr := validation.BindURI(c, &uri); verr != nil {
		r.invalid(c, verr)
		return
	}

	order, err := r.client.GetFlightOrder(c.Request.Context(), middleware.GetRequestID(c), uri.ID)
	if err != nil {
		r.fail(c, err)
		return
	}
	r.ok(c, gin.H{"data": bookingResponse(order)})
}

// CancelBooking cancels an order. The provider returns no body.
func (r *Router) CancelBooking(c *gin.Context) {
	var uri bookingURI
	if verr := validation.BindURI(c, &uri); verr != nil {
		r.invalid(c, verr)
		return
	}

	if err := r.client.CancelFlightOrder(c.Request.Context(), middleware.GetRequestID(c), uri.ID); err != nil {
		r.fail(c, err)
		return
	}
	r.ok(c, gin.H{"data": gin.H{"id": uri.ID, "status": "CANCELLED"}})
}

func bookingResponse(o *travelclient.FlightOrder) gin.H {
	var reference string
	if len(o.AssociatedRecords) > 0 {
		reference = o.AssociatedRecords[0].Reference
	}
	return gin.H{
		"id":                o.ID,
		"reference":         reference,
		"associatedRecords": o.AssociatedRecords,
		"flightOffers":      o.FlightOffers,
		"travelers":         o.Travelers,
	}
}
