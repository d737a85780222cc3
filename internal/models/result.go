package models

import "time"

type ScreenResponse struct {
	ID      string         `json:"id"`
	Results []ResultRecord `json:"results"`
}

type ScreeningResponse struct {
	ID             string         `json:"id"`
	JobDescription string         `json:"job_description"`
	Results        []ResultRecord `json:"results"`
	CreatedAt      time.Time      `json:"created_at"`
}
