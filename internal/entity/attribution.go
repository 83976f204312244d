package entity

// Attribution links a lead to the campaign or click that produced it. It is
// captured once at creation and never rewritten.
type Attribution struct {
	UTMSource   string `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty" bson:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty" bson:"utmContent,omitempty"`

	FBClid         string `json:"fbclid,omitempty" bson:"fbclid,omitempty"`
	FBC            string `json:"fbc,omitempty" bson:"fbc,omitempty"`
	FBP            string `json:"fbp,omitempty" bson:"fbp,omitempty"`
	MetaCampaignID string `json:"metaCampaignId,omitempty" bson:"metaCampaignId,omitempty"`
	MetaAdSetID    string `json:"metaAdSetId,omitempty" bson:"metaAdSetId,omitempty"`
	MetaAdID       string `json:"metaAdId,omitempty" bson:"metaAdId,omitempty"`

	GClid            string `json:"gclid,omitempty" bson:"gclid,omitempty"`
	GBraid           string `json:"gbraid,omitempty" bson:"gbraid,omitempty"`
	WBraid           string `json:"wbraid,omitempty" bson:"wbraid,omitempty"`
	GoogleCampaignID string `json:"googleCampaignId,omitempty" bson:"googleCampaignId,omitempty"`
	GoogleAdGroupID  string `json:"googleAdGroupId,omitempty" bson:"googleAdGroupId,omitempty"`

	Referrer    string `json:"referrer,omitempty" bson:"referrer,omitempty"`
	LandingPage string `json:"landingPage,omitempty" bson:"landingPage,omitempty"`
	UserAgent   string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	ClientIP    string `json:"clientIp,omitempty" bson:"clientIp,omitempty"`
	DeviceType  string `json:"deviceType,omitempty" bson:"deviceType,omitempty"`
	Platform    string `json:"platform,omitempty" bson:"platform,omitempty"`
}

func (a Attribution) IsEmpty() bool {
	return a == Attribution{}
}
