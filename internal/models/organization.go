// internal/models/organization.go
package models

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Branding  Branding  `json:"branding"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Branding struct {
	PrimaryColor string  `json:"primaryColor"`
	LogoURL      *string `json:"logoUrl"`
}

// BrandingUpdate is the body of PATCH /api/organization.
type BrandingUpdate struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=2"`
	PrimaryColor *string `json:"primaryColor,omitempty" binding:"omitempty,hexcolor,len=7"`
	LogoURL      *string `json:"logoUrl,omitempty" binding:"omitempty,url"`
}

// EmailResult is a discovered outreach address.
type EmailResult struct {
	Email      string `json:"email"`
	Source     string `json:"source"`
	Confidence int    `json:"confidence"`
}

// FindEmailRequest is the body of POST /api/outreach/find-email.
type FindEmailRequest struct {
	Domain      string `json:"domain" binding:"required,min=3,max=253"`
	CompanyName string `json:"companyName" binding:"required"`
}
