package domain

import "time"

// ShortLink maps a short token to its target URL
type ShortLink struct {
	Token     string    `json:"token"`
	TargetURL string    `json:"target_url"`
	DomainTag string    `json:"domain"`
	Clicks    int64     `json:"clicks"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortenRequest carries the caller-supplied fields of a shorten call.
// CustomToken and DomainTag are optional and empty when absent.
type ShortenRequest struct {
	TargetURL   string
	CustomToken string
	DomainTag   string
}
