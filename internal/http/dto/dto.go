package dto

type IssuePassRequest struct {
	TemplateID  string            `json:"template_id"`
	FieldValues map[string]string `json:"field_values"`
}

type IssuePassResponse struct {
	Serial       string `json:"serial"`
	AuthToken    string `json:"auth_token"`
	Version      int64  `json:"version"`
	LastModified string `json:"last_modified"`
}

type PublishRequest struct {
	FieldValues map[string]string `json:"field_values"`
	Reason      string            `json:"reason"`
}

type PublishResponse struct {
	Serial       string `json:"serial"`
	Version      int64  `json:"version"`
	LastModified string `json:"last_modified"`
}

type RegisterRequest struct {
	PushToken string `json:"push_token"`
}

type RegisterResponse struct {
	Serial string `json:"serial"`
	Status string `json:"status"`
}

type ChangedSerialsResponse struct {
	Serials     []string `json:"serials"`
	LastUpdated string   `json:"last_updated"`
}

type LogRequest struct {
	Messages []string `json:"messages"`
}
