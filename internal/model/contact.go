package model

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Organization string `json:"organization" validate:"max=200"`
	Message      string `json:"message" validate:"required,max=5000"`
}
