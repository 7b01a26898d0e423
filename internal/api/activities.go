package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

type activityQuery struct {
	Latitude  *float64 `form:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"required,min=-180,max=180"`
	Radius    *int     `form:"radius" binding:"omitempty,min=0,max=20"`
	Keyword   string   `form:"keyword" binding:"omitempty,max=64"`
	Limit     int      `form:"limit,default=20" binding:"min=1,max=50"`
}

type activityURI struct {
	ID string `uri:"id" binding:"required,max=64"`
}

// SearchActivities lists activities around a coordinate. The provider has no
// keyword filter, so keyword and limit are applied here.
func (r *Router) SearchActivities(c *gin.Context) {
	var q activityQuery
	if verr := validation.BindQuery(c, &q); verr != nil {
		r.invalid(c, verr)
		return
	}

	activities, err := r.client.SearchActivities(c.Request.Context(), middleware.GetRequestID(c), travelclient.ActivitySearchParams{
		Latitude:  *q.Latitude,
		Longitude: *q.Longitude,
		Radius:    q.Radius,
	})
	if err != nil {
		r.fail(c, err)
		return
	}

	data := filterActivities(activities, q.Keyword, q.Limit)
	r.ok(c, gin.H{
		"data": data,
		"meta": gin.H{"count": len(data), "total": len(activities)},
	})
}

// GetActivity returns one activity.
func (r *Router) GetActivity(c *gin.Context) {
	var uri activityURI
	if verr := validation.BindURI(c, &uri); verr != nil {
		r.invalid(c, verr)
		return
	}

	activity, err := r.client.GetActivity(c.Request.Context(), middleware.GetRequestID(c), uri.ID)
	if err != nil {
		r.fail(c, err)
		return
	}
	r.ok(c, gin.H{"data": activity})
}

func filterActivities(in []travelclient.Activity, keyword string, limit int) []travelclient.Activity {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	out := make([]travelclient.Activity, 0, limit)
	for _, a := range in {
		if len(out) == limit {
			break
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(a.Name), keyword) &&
			!strings.Contains(strings.ToLower(a.ShortDescription), keyword) {
			continue
		}
		out = append(out, a)
	}
	return out
}
