package admin

// AddAdminRequest identifies the user to promote.
type AddAdminRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}
