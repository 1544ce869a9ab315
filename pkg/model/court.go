package model

// Court is a bookable resource. When Availability is false both window
// dates are set and UnavailableUntil is exactly two calendar days after
// UnavailableFrom; when it is true both are empty. Window dates carry no
// time component, so they are kept as calendar-date strings.
type Court struct {
	ID               string `json:"id_court,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name             string `json:"court_name" bson:"name" validate:"required,min=1,max=100"`
	Availability     bool   `json:"availability" bson:"availability"`
	UnavailableFrom  string `json:"start_date_unavailable,omitempty" bson:"unavailable_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	UnavailableUntil string `json:"end_date_unavailable,omitempty" bson:"unavailable_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UnavailabilityWindow is the payload of the admin transition that takes a
// court out of service.
type UnavailabilityWindow struct {
	From  string `json:"start_date_unavailable" validate:"required,datetime=2006-01-02"`
	Until string `json:"end_date_unavailable" validate:"required,datetime=2006-01-02"`
}
