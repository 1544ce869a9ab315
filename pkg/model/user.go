package model

// User is an external identity referenced by bookings. The core resolves
// it by pseudo and never exposes it; only the password check on login
// reads beyond the id.
type User struct {
	ID       string `json:"id_user,omitempty" bson:"_id,omitempty"`
	Pseudo   string `json:"pseudo" bson:"pseudo" validate:"required,min=2,max=50"`
	Password string `json:"-" bson:"password,omitempty"`
	IsAdmin  bool   `json:"is_admin" bson:"is_admin"`
}
