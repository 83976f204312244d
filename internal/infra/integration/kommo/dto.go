package kommo

type customFieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

type customField struct {
	FieldCode string             `json:"field_code"`
	Values    []customFieldValue `json:"values"`
}

type contactRequest struct {
	Name         string        `json:"name"`
	CustomFields []customField `json:"custom_fields_values"`
}

type tag struct {
	Name string `json:"name"`
}

type entityRef struct {
	ID int `json:"id"`
}

type leadEmbedded struct {
	Tags     []tag       `json:"tags,omitempty"`
	Contacts []entityRef `json:"contacts"`
}

type leadRequest struct {
	Name       string       `json:"name"`
	PipelineID int          `json:"pipeline_id,omitempty"`
	StatusID   int          `json:"status_id,omitempty"`
	Embedded   leadEmbedded `json:"_embedded"`
}

type embeddedIDs struct {
	Embedded struct {
		Contacts []entityRef `json:"contacts"`
		Leads    []entityRef `json:"leads"`
	} `json:"_embedded"`
}
