package models

// QueueStatus - posisi client di antrian hari ini beserta estimasi waktu tunggu
type QueueStatus struct {
	InQueue                 bool        `json:"in_queue"`
	CurrentlyServing        *int        `json:"currently_serving"`
	YourToken               int         `json:"your_token,omitempty"`
	YourStatus              TokenStatus `json:"your_status,omitempty"`
	PeopleAhead             int         `json:"people_ahead"`
	RemainingTime           float64     `json:"remaining_time"`
	EstimatedWaitMinutes    float64     `json:"estimated_wait_minutes"`
	AverageConsultationTime float64     `json:"average_consultation_time"`
}

// Board - data publik untuk layar display antrian
type Board struct {
	ProviderID              int64   `json:"provider_id"`
	ProviderName            string  `json:"provider_name"`
	Day                     Day     `json:"day"`
	CurrentlyServing        *int    `json:"currently_serving"`
	TotalWaiting            int     `json:"total_waiting"`
	AverageConsultationTime float64 `json:"average_consultation_time"`
}
