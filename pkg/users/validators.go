package users

// UpdateMePayload represents the body of a profile update.
type UpdateMePayload struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}
