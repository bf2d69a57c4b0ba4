package model

// AlertRecord is a persisted threshold breach.
type AlertRecord struct {
	ID             int64        `json:"id"`
	AlertType      ResourceType `json:"alert_type"`
	Message        string       `json:"alert_message"`
	ResourceValue  string       `json:"resource_value"`
	ThresholdValue string       `json:"threshold_value"`
	CreatedAt      int64        `json:"created_at"`
}

// AlertPage is one page of the alert history.
type AlertPage struct {
	Alerts []AlertRecord `json:"alerts"`
	Total  int64         `json:"total"`
	Pages  int64         `json:"pages"`
	Page   int           `json:"page"`
}
