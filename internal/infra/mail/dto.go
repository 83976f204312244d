package mail

type newLeadEmailData struct {
	Name              string
	Email             string
	Phone             string
	CountryOfInterest string
	ProgramType       string
	Major             string
	Message           string
	Source            string
	UTMSource         string
	UTMCampaign       string
	CreatedAt         string
	AdminURL          string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
	AdminURL string

	send func(m *Message) error
}
