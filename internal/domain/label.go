package domain

type Label struct {
	Code         string  `json:"code"`
	DefaultHours float64 `json:"defaultHours"`
	Description  string  `json:"description"`
}
