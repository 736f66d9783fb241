package users

// UpdateUserRequest is the partial-update payload for a user profile. Only
// fields present in the request are applied; absent fields are left
// untouched.
type UpdateUserRequest struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Username   *string `json:"username,omitempty" validate:"omitempty,min=3,max=255"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
}

// hasUpdates reports whether any field is present in the payload.
func (r *UpdateUserRequest) hasUpdates() bool {
	return r.Email != nil || r.Username != nil || r.Phone != nil || r.Password != nil ||
		r.Address != nil || r.City != nil || r.State != nil || r.PostalCode != nil
}
