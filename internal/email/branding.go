package email

import "github.com/yungbote/deelicious-bakes-backend/internal/platform/envutil"

// Branding is merged into every template's data.
type Branding struct {
	CompanyName    string
	OwnerName      string
	CompanyAddress string
	SupportEmail   string
	WebsiteURL     string
	Tagline        string
}

func BrandingFromEnv() Branding {
	return Branding{
		CompanyName:    envutil.String("BRAND_COMPANY_NAME", "Dee-licious Bakes"),
		OwnerName:      envutil.String("BRAND_OWNER_NAME", "Dee"),
		CompanyAddress: envutil.String("BRAND_ADDRESS", "123 Baker Street, Sweetville"),
		SupportEmail:   envutil.String("BRAND_SUPPORT_EMAIL", "hello@deeliciousbakes.com"),
		WebsiteURL:     envutil.String("APP_BASE_URL", "http://localhost:3000"),
		Tagline:        envutil.String("BRAND_TAGLINE", "Handmade cakes baked with love"),
	}
}

func (b Branding) fields() map[string]any {
	return map[string]any{
		"companyName":    b.CompanyName,
		"ownerName":      b.OwnerName,
		"companyAddress": b.CompanyAddress,
		"supportEmail":   b.SupportEmail,
		"websiteUrl":     b.WebsiteURL,
		"tagline":        b.Tagline,
	}
}
