// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// SocialLinks enumerates the supported social profiles. Empty means hidden.
type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
	Instagram string `json:"instagram"`
	YouTube   string `json:"youtube"`
}

// SiteSettings is the public site profile exposed to the frontend.
type SiteSettings struct {
	SiteName        string      `json:"siteName"`
	SiteDescription string      `json:"siteDescription"`
	ContactEmail    string      `json:"contactEmail"`
	ContactPhone    string      `json:"contactPhone"`
	Address         string      `json:"address"`
	SocialLinks     SocialLinks `json:"socialLinks"`
}

// DefaultSiteSettings returns the values used when nothing is configured.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:        "Eyob Salemot",
		SiteDescription: "Tourism, Media & Community Solutions",
		ContactEmail:    "contact@eyobsalemot.com",
		ContactPhone:    "+251 911 123 456",
		Address:         "Addis Ababa, Ethiopia",
	}
}
