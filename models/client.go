package models

import (
	"net/mail"
	"strings"
	"time"
)

// Client is a billed customer.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   *string   `json:"company"`
	Phone     *string   `json:"phone"`
	GSTNumber *string   `json:"gst_number"`
	PANNumber *string   `json:"pan_number"`
	Address   *string   `json:"address"`
	State     *string   `json:"state"`
	Country   *string   `json:"country"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientInput is used for creating/updating clients.
type ClientInput struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Company   *string `json:"company"`
	Phone     *string `json:"phone"`
	GSTNumber *string `json:"gst_number"`
	PANNumber *string `json:"pan_number"`
	Address   *string `json:"address"`
	State     *string `json:"state"`
	Country   *string `json:"country"`
}

// Validate checks required fields and normalizes the email to lower case.
func (c *ClientInput) Validate() string {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return "name is required"
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" {
		return "email is required"
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return "email is invalid"
	}
	return ""
}

// ClientPage is one page of a client listing.
type ClientPage struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}
